/*
balance.go - Quota usage against a fixed annual limit

PURPOSE:
  Answers "what happens to this quota if the request goes through?"
  Quotas here are soft: a request that pushes usage past the limit is
  never refused, the projection only reports the overage so callers can
  warn about it.

CALCULATION:
  UsedAfter    = Used + Requested
  ExceedsLimit = UsedAfter > Limit
  Remaining    = max(0, Limit - UsedAfter)
  Overage      = UsedAfter - Limit   (zero unless ExceedsLimit)

EXAMPLE:
  Limit 20 days, used 18, requesting 3:
  UsedAfter 21, ExceedsLimit true, Remaining 0, Overage 1

SEE ALSO:
  - scheduling/quota.go: Maps absence types onto contract quotas
*/
package generic

// Quota is a limit and the amount already used against it.
type Quota struct {
	Limit Amount
	Used  Amount
}

// Remaining is what is left before the limit, never negative.
func (q Quota) Remaining() Amount {
	return q.Limit.Sub(q.Used).NonNegative()
}

// Project computes the effect of consuming requested on top of current usage.
func (q Quota) Project(requested Amount) QuotaProjection {
	return ProjectQuota(q.Limit, q.Used, requested)
}

// QuotaProjection is the display-side outcome of a request against a quota.
type QuotaProjection struct {
	Limit        Amount
	UsedBefore   Amount
	Requested    Amount
	UsedAfter    Amount
	Remaining    Amount
	Overage      Amount
	ExceedsLimit bool
}

// ProjectQuota never rejects; it only reports.
func ProjectQuota(limit, used, requested Amount) QuotaProjection {
	usedAfter := used.Add(requested)
	p := QuotaProjection{
		Limit:        limit,
		UsedBefore:   used,
		Requested:    requested,
		UsedAfter:    usedAfter,
		Remaining:    limit.Sub(usedAfter).NonNegative(),
		Overage:      limit.Zero(),
		ExceedsLimit: usedAfter.GreaterThan(limit),
	}
	if p.ExceedsLimit {
		p.Overage = usedAfter.Sub(limit)
	}
	return p
}

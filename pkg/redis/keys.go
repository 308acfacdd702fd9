package redis

import "strings"

const namespace = "lp"

// IdempotencyKey namespaces a client supplied Idempotency-Key under scope,
// which the middleware builds from caller, method and path.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey("idempotency", scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return joinKey("rate_limit", scope)
}

// joinKey drops blank segments so a missing id never yields "a::b".
func joinKey(segments ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

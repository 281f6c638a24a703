package safehttp

// WithAllowedAddress lets the client connect to address ("ip:port") even if
// it is not public. Only for tests running servers on loopback.
func WithAllowedAddress(address string) Option {
	return func(c *config) {
		if c.allowedAddrs == nil {
			c.allowedAddrs = make(map[string]struct{})
		}
		c.allowedAddrs[address] = struct{}{}
	}
}

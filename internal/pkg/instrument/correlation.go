package instrument

import "context"

type correlationKey struct{}

// GetCorrelationID returns the correlation id carried by ctx, or "" when absent.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cID, _ := ctx.Value(correlationKey{}).(string)
	return cID
}

// SetCorrelationID returns a child context carrying cID. Log records written
// with that context get a "_cID" attribute.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cID)
}

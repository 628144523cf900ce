package common

// DefaultAccount is used when a tool call names no account.
const DefaultAccount = "default"

// GetAccountFromArgs returns the "account" argument of a tool call, or
// DefaultAccount when it is missing or not a string.
func GetAccountFromArgs(args map[string]any) string {
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return DefaultAccount
}

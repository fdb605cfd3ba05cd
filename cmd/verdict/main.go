// Verdict is a deterministic payment-policy decision service.
//
// It evaluates payment intents against named spending policies and
// answers with an approval decision, a risk score, and the list of
// rules that fired. Spending totals live in a local ledger so daily
// and weekly limits hold across requests.
//
// Usage:
//
//	# Start the decision server with default configuration
//	verdict run
//
//	# Start with a custom configuration file
//	verdict run --config /etc/verdict/config.yaml
//
//	# Evaluate one intent offline against a policy file
//	verdict eval --policy policy.yaml --intent intent.yaml
//
//	# Validate policy files
//	verdict lint --file policies/
//
//	# Show version information
//	verdict version
package main

func main() {
	Execute()
}

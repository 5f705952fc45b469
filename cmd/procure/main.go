// Procure is the purchase-decision engine for internal procurement requests.
//
// Given a user and a product search term it checks the department's
// category policy and monthly budget, selects a supplier offer with the
// department's purchase strategy, commits the spend and writes an audit
// record where the department requires one.
//
// Usage:
//
//	# Start the HTTP tool server
//	procure run --config config.yaml
//
//	# Run one decision from the command line
//	procure decide --user u004 laptop
//
//	# Show department budgets
//	procure budget show
//
//	# Query and export the audit log
//	procure audit query --department ENG
//	procure audit export --format csv --output audit.csv
//
//	# Validate configuration and catalog
//	procure validate
package main

func main() {
	Execute()
}

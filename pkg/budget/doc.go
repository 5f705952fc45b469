// Package budget tracks monthly department spend against the department's
// budget limit.
//
// # Check and Commit
//
// Check is a read-only pre-check: it fails with an *ExceededError when
// spent + price would exceed the limit. It uses committed spend only, so a
// Check that passes is followed by a Commit of the same price that passes
// too, as long as nothing else committed in between.
//
// Commit re-checks the limit and writes the new spend inside a
// per-department critical section, using a compare-and-swap on the ledger
// entry's version. The invariant spent <= limit therefore holds after every
// successful commit, whatever the number of concurrent callers.
//
// # Timeouts
//
// Commit bounds its ledger write by Config.CommitTimeout. When the write
// fails with anything other than a version mismatch the outcome is
// reconciled by re-reading the entry; see Commit.
//
// # Periods
//
// Spend is kept per calendar month ("YYYY-MM"). An entry from an earlier
// month reads as zero spend; Scheduler persists the reset on a cron
// schedule (DefaultRolloverSchedule).
package budget

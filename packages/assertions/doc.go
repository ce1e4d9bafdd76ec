// Package assertions provides response validation for loadflow steps.
//
// Supported assertion kinds:
//   - Status code checks (statusCode: 200)
//   - JSONPath queries with operators (equals, contains, exists, notExists,
//     greaterThan, lessThan, match)
//   - Response time thresholds in milliseconds
//   - Header presence and exact-value checks
//   - Custom predicates registered by name before the run starts
//
// Evaluation is pure: every internal fault (bad regex, missing predicate,
// non-numeric comparison) is reported as a failed assertion with a reason.
package assertions

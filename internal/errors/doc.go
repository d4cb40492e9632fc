// Package errors provides structured, coded errors for binderlink.
//
// Every error raised at a boundary of the service (configuration loading,
// provider registry validation, HTTP and CLI input) carries:
//   - a stable code (e.g. "E111") that maps to a registered template
//   - a category used to pick an HTTP status or exit behaviour
//   - an optional detail line and a fix suggestion
//
// The launch derivations themselves never return errors; "not ready"
// states are represented by empty values.
//
// # Usage
//
//	err := errors.New("E111").
//	    WithDetail(`provider "gh": missing ")"`).
//	    WithSuggestion("Check the detect.regex value of the provider")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E111: Invalid detect pattern
//	//
//	//   provider "gh": missing ")"
//	//
//	//   Hint: Check the detect.regex value of the provider
package errors

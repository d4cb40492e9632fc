// Package launch derives what a launch form requests and what it shows.
//
// Given a provider, a repository, an optional reference and an optional
// path to open after launch, the package computes:
//
//   - the build spec, "<providerID>/<encodedRepo>/<effectiveRef>", handed to
//     the launcher together with a LaunchSpec carrying the path
//   - the shareable launch URL, "<publicBase>/v2/<providerID>/<encodedRepo>/<ref>"
//     with an optional urlpath query parameter
//   - badge markup (Markdown or reStructuredText) linking to that URL
//
// All derivations are pure functions of their inputs and are recomputed on
// every read; nothing is cached. Incomplete input never produces an error:
// a missing repository or an unresolved required reference yields an empty
// launch URL and empty badge markup.
//
// Selection holds the mutable state of one form session and exposes the same
// derivations over its current values.
//
//	sel, _ := launch.NewSelection(provider.Builtin())
//	sel.InputRepo("https://github.com/binder-examples/requirements")
//	sel.SetPath("index.ipynb")
//
//	sel.Spec().BuildSpec        // gh/binder-examples/requirements/HEAD
//	sel.ShareURL(publicBase)    // https://.../v2/gh/binder-examples/requirements/HEAD?urlpath=%2Fdoc%2Ftree%2Findex.ipynb
package launch

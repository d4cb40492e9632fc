// Package routepath cleans the post-launch URL paths carried by launch
// links.
//
// A launch link may ask the launcher to open a path inside the running
// server (the urlpath query parameter). That path comes from whoever wrote
// the link, so before it is resolved under a server prefix it is reduced to
// a relative path that cannot leave the prefix:
//
//   - leading and repeated slashes are dropped
//   - "." segments are removed and ".." segments resolved
//   - a trailing slash is kept
//
// Absolute URLs, backslashes, NUL bytes, malformed percent escapes and ".."
// segments that climb above the prefix are rejected.
package routepath

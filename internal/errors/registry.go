package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E109)
	// ============================================

	"E100": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Run 'binderlink config init' to write a default binderlink.json",
	},
	"E101": {
		Category:   CategoryConfig,
		Message:    "Configuration file unreadable",
		Suggestion: "Check that binderlink.json is valid JSON",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E103": {
		Category:   CategoryConfig,
		Message:    "Invalid public base URL",
		Suggestion: "Use an absolute URL such as https://binder.example.org/",
	},

	// ============================================
	// Provider Registry Errors (E110-E119)
	// ============================================

	"E110": {
		Category: CategoryProvider,
		Message:  "Provider registry unreadable",
	},
	"E111": {
		Category:   CategoryProvider,
		Message:    "Invalid detect pattern",
		Suggestion: "Detect patterns use RE2 syntax; lookarounds and backreferences are not supported",
	},
	"E112": {
		Category:   CategoryProvider,
		Message:    "Detect pattern has no repo group",
		Suggestion: "Add a named capture group, e.g. ^(https?://github.com/)?(?<repo>.*)",
	},
	"E113": {
		Category: CategoryProvider,
		Message:  "Duplicate provider id",
	},
	"E114": {
		Category:   CategoryProvider,
		Message:    "Provider registry is empty",
		Suggestion: "List at least one provider, or remove the providers source to use the builtin table",
	},
	"E115": {
		Category: CategoryProvider,
		Message:  "Provider id is empty",
	},
	"E116": {
		Category:   CategoryProvider,
		Message:    "Unsupported registry format",
		Suggestion: "Use a .json, .yaml, .yml or .toml file",
	},

	// ============================================
	// Request Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryNotFound,
		Message:  "Unknown provider",
	},
	"E121": {
		Category:   CategoryValidation,
		Message:    "Unknown badge kind",
		Suggestion: `Use "md" or "rst"`,
	},
	"E122": {
		Category:   CategoryValidation,
		Message:    "Unknown path kind",
		Suggestion: `Use "file" or "url"`,
	},
	"E123": {
		Category: CategoryValidation,
		Message:  "Malformed launch path",
	},
	"E124": {
		Category: CategoryValidation,
		Message:  "Malformed session message",
	},
	"E125": {
		Category: CategoryForbidden,
		Message:  "Address not allowed",
	},

	// ============================================
	// Remote Errors (E130-E139)
	// ============================================

	"E130": {
		Category:   CategoryRemote,
		Message:    "Fetching provider registry from S3 failed",
		Suggestion: "Check bucket, key and AWS credentials",
	},

	// ============================================
	// Event Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryEvent,
		Message:  "Event does not match its schema",
	},
	"E141": {
		Category: CategoryEvent,
		Message:  "Event sink failed",
	},
	"E142": {
		Category: CategoryEvent,
		Message:  "Unknown event schema",
	},

	// ============================================
	// Server Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryInternal,
		Message:  "Internal server error",
	},
	"E151": {
		Category:   CategoryCLI,
		Message:    "Interactive form needs a terminal",
		Suggestion: "Use 'binderlink link' with flags instead",
	},
	"E152": {
		Category:   CategoryCLI,
		Message:    "Not enough information to build a link",
		Suggestion: "Pass --repo, and --ref when the provider has no default reference",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

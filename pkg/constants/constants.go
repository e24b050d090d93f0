// Package constants provides shared constants for the use-of-proceeds application.
package constants

// Grid constants
const (
	// TotalRowName is the name of the computed row holding column totals
	TotalRowName = "TOTAL"

	// OtherCategory is the overall category used when a row cannot be resolved
	OtherCategory = "Other"

	// DefaultColumnName is the capital source created when no column is known
	DefaultColumnName = "Amount"
)

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "proceeds.yaml"

	// DefaultEnvFile is the optional dotenv file loaded before configuration
	DefaultEnvFile = ".env"

	// DefaultDataFile is the records document used when none is configured
	DefaultDataFile = "proceeds-data.yaml"

	// EnvPrefix prefixes environment overrides, e.g. PROCEEDS_SERVER_ADDRESS
	EnvPrefix = "PROCEEDS"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

package domain

// Category tags a recurring due for analytics grouping and decides whether
// the due may omit its amount.
// Value object - immutable string enum.
type Category string

const (
	CategoryUtilities    Category = "utilities"
	CategoryLoan         Category = "loan"
	CategorySubscription Category = "subscription"
	CategoryPhone        Category = "phone"
	CategoryInternet     Category = "internet"
	CategoryInsurance    Category = "insurance"
	CategorySavings      Category = "savings"
	CategoryInvestment   Category = "investment"
	CategoryCards        Category = "cards"
	CategoryOther        Category = "other"
)

// RecurrenceUnit is the granularity of repetition.
// Value object - immutable string enum.
type RecurrenceUnit string

const (
	UnitWeekly    RecurrenceUnit = "weekly"
	UnitBiweekly  RecurrenceUnit = "biweekly"
	UnitMonthly   RecurrenceUnit = "monthly"
	UnitQuarterly RecurrenceUnit = "quarterly"
	UnitAnnually  RecurrenceUnit = "annually"
)

// DueStatus is the lifecycle tag of a recurring due. It does not affect
// schedule generation.
type DueStatus string

const (
	DueStatusActive   DueStatus = "active"
	DueStatusPaused   DueStatus = "paused"
	DueStatusCanceled DueStatus = "canceled"
)

// EndKind selects the termination rule of an EndPolicy.
type EndKind string

const (
	EndNever            EndKind = "never"
	EndAfterDate        EndKind = "after_date"
	EndAfterOccurrences EndKind = "after_occurrences"
)

package consts

// Bucket is a delinquency (DPD) bucket as persisted on fact records.
type Bucket string

const (
	BucketCurrent  Bucket = "0"
	BucketDPD1To30 Bucket = "1-30"
	BucketDPD31To60 Bucket = "31-60"
	BucketDPD61To90 Bucket = "61-90"
	BucketDPD90Plus Bucket = "90+"
)

// Buckets lists every bucket in severity order.
var Buckets = []Bucket{
	BucketCurrent,
	BucketDPD1To30,
	BucketDPD31To60,
	BucketDPD61To90,
	BucketDPD90Plus,
}

// Severity returns the position of a bucket in the severity order,
// Current being 0. Unknown buckets rank below Current.
func (b Bucket) Severity() int {
	for i, known := range Buckets {
		if b == known {
			return i
		}
	}
	return -1
}

// Delinquent reports whether the bucket carries arrears.
func (b Bucket) Delinquent() bool {
	return b != BucketCurrent
}

// LoanStatus is the lifecycle status stamped on fact records.
type LoanStatus string

const (
	StatusActive    LoanStatus = "active"
	StatusCured     LoanStatus = "cured"
	StatusPaidOff   LoanStatus = "paid_off"
	StatusDefaulted LoanStatus = "defaulted"
)

// Terminal reports whether no further fact records may follow.
func (s LoanStatus) Terminal() bool {
	return s == StatusPaidOff || s == StatusDefaulted
}

// Migration scenario tags on fact records.
const (
	ScenarioBase       = "base"
	ScenarioCure       = "cure"
	ScenarioEarlyRepay = "early_repay"
)

// DPD accrues on a 30/360 day-count so bucket progression under
// sustained non-payment is strictly sequential.
const DaysPerOverdueMonth = 30

// PeriodMonthLayout is the calendar-month key format shared by macro
// snapshots and fact records.
const PeriodMonthLayout = "2006-01"

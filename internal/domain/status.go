package domain

// OpportunityStatus is ordinal so that opportunities sort by pipeline stage
type OpportunityStatus int

const (
	OpportunityStatusLead      OpportunityStatus = 0
	OpportunityStatusRFQ       OpportunityStatus = 10
	OpportunityStatusQuoted    OpportunityStatus = 20
	OpportunityStatusWon       OpportunityStatus = 100
	OpportunityStatusLost      OpportunityStatus = 200
	OpportunityStatusCancelled OpportunityStatus = 210
)

var opportunityStatusNames = map[OpportunityStatus]string{
	OpportunityStatusLead:      "Lead",
	OpportunityStatusRFQ:       "RFQ",
	OpportunityStatusQuoted:    "Quoted",
	OpportunityStatusWon:       "Won",
	OpportunityStatusLost:      "Lost",
	OpportunityStatusCancelled: "Cancelled",
}

func (s OpportunityStatus) String() string {
	return opportunityStatusNames[s]
}

// IsValid reports whether s is a known opportunity status
func (s OpportunityStatus) IsValid() bool {
	_, ok := opportunityStatusNames[s]
	return ok
}

// QuoteStatus is the lifecycle state of a quote
type QuoteStatus int

const (
	QuoteStatusPending          QuoteStatus = 0
	QuoteStatusInProgress       QuoteStatus = 10
	QuoteStatusDone             QuoteStatus = 20
	QuoteStatusApproved         QuoteStatus = 30
	QuoteStatusPresented        QuoteStatus = 40
	QuoteStatusExpired          QuoteStatus = 50
	QuoteStatusClosedAsRevision QuoteStatus = 100
	QuoteStatusCancelled        QuoteStatus = 200
)

var quoteStatusNames = map[QuoteStatus]string{
	QuoteStatusPending:          "Pending",
	QuoteStatusInProgress:       "InProgress",
	QuoteStatusDone:             "Done",
	QuoteStatusApproved:         "Approved",
	QuoteStatusPresented:        "Presented",
	QuoteStatusExpired:          "Expired",
	QuoteStatusClosedAsRevision: "ClosedAsRevision",
	QuoteStatusCancelled:        "Cancelled",
}

func (s QuoteStatus) String() string {
	return quoteStatusNames[s]
}

// IsValid reports whether s is a known quote status
func (s QuoteStatus) IsValid() bool {
	_, ok := quoteStatusNames[s]
	return ok
}

// DiscountType selects how a document-level discount is expressed
type DiscountType int

const (
	DiscountTypeNone       DiscountType = 0
	DiscountTypePercentage DiscountType = 1
	DiscountTypeAmount     DiscountType = 2
)

// IsValid reports whether t is a known discount type
func (t DiscountType) IsValid() bool {
	return t == DiscountTypeNone || t == DiscountTypePercentage || t == DiscountTypeAmount
}

// POStatus is the lifecycle state of a purchase order
type POStatus int

const (
	POStatusReceived     POStatus = 10
	POStatusOnRevision   POStatus = 20
	POStatusAccepted     POStatus = 50
	POStatusAcknowledged POStatus = 100
	POStatusInProgress   POStatus = 110
	POStatusCompleted    POStatus = 200
	POStatusRejected     POStatus = 250
	POStatusCancelled    POStatus = 251
)

var poStatusNames = map[POStatus]string{
	POStatusReceived:     "Received",
	POStatusOnRevision:   "On Revision",
	POStatusAccepted:     "Accepted",
	POStatusAcknowledged: "Acknowledged",
	POStatusInProgress:   "In Progress",
	POStatusCompleted:    "Completed",
	POStatusRejected:     "Rejected",
	POStatusCancelled:    "Cancelled",
}

func (s POStatus) String() string {
	return poStatusNames[s]
}

// POSettableStatuses are the statuses an operator may set directly on a PO
var POSettableStatuses = []POStatus{POStatusAccepted, POStatusAcknowledged, POStatusRejected}

// TaskStatus is the lifecycle state of a task
type TaskStatus int

const (
	TaskStatusScheduled    TaskStatus = 10
	TaskStatusAcknowledged TaskStatus = 20
	TaskStatusInProgress   TaskStatus = 100
	TaskStatusCompleted    TaskStatus = 200
	TaskStatusRejected     TaskStatus = 250
	TaskStatusCancelled    TaskStatus = 251
)

var taskStatusNames = map[TaskStatus]string{
	TaskStatusScheduled:    "Scheduled",
	TaskStatusAcknowledged: "Acknowledged",
	TaskStatusInProgress:   "In Progress",
	TaskStatusCompleted:    "Completed",
	TaskStatusRejected:     "Rejected",
	TaskStatusCancelled:    "Cancelled",
}

func (s TaskStatus) String() string {
	return taskStatusNames[s]
}

// IsValid reports whether s is a known task status
func (s TaskStatus) IsValid() bool {
	_, ok := taskStatusNames[s]
	return ok
}

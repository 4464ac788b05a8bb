package reportportal

const (
	StatusPassed  = "PASSED"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"

	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelError = "ERROR"

	ItemTypeSuite = "SUITE"
	ItemTypeStep  = "STEP"

	IssueNotIssue = "NOT_ISSUE"
)

// Attribute is a launch key/value pair.
type Attribute struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Issue marks a finished item as triaged.
type Issue struct {
	IssueType string `json:"issueType"`
}

// Attachment is a file sent along a log entry.
type Attachment struct {
	Name string
	Data []byte
	Mime string
}

// StartLaunchRequest opens a launch. Times are epoch milliseconds.
type StartLaunchRequest struct {
	Name        string      `json:"name"`
	StartTime   int64       `json:"startTime"`
	Description string      `json:"description,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	Mode        string      `json:"mode,omitempty"`
}

type StartItemRequest struct {
	Name       string `json:"name"`
	StartTime  int64  `json:"startTime"`
	Type       string `json:"type"`
	LaunchUUID string `json:"launchUuid"`
}

type FinishItemRequest struct {
	EndTime    int64  `json:"endTime"`
	Status     string `json:"status,omitempty"`
	LaunchUUID string `json:"launchUuid"`
	Issue      *Issue `json:"issue,omitempty"`
}

type FinishLaunchRequest struct {
	EndTime int64  `json:"endTime"`
	Status  string `json:"status,omitempty"`
}

// LogRequest is one log entry of an item. Attachment is optional.
type LogRequest struct {
	ItemID     string
	Time       int64
	Message    string
	Level      string
	Attachment *Attachment
}

type logPayload struct {
	LaunchUUID string   `json:"launchUuid"`
	ItemUUID   string   `json:"itemUuid"`
	Time       int64    `json:"time"`
	Message    string   `json:"message"`
	Level      string   `json:"level"`
	File       *logFile `json:"file,omitempty"`
}

type logFile struct {
	Name string `json:"name"`
}

type entryCreated struct {
	ID string `json:"id"`
}

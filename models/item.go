package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ItemType represents the kind of information an item carries.
type ItemType string

const (
	TypeEmail      ItemType = "email"
	TypeMeeting    ItemType = "meeting"
	TypeTask       ItemType = "task"
	TypeDecision   ItemType = "decision"
	TypeInitiative ItemType = "strategic-initiative"
	TypeQuestion   ItemType = "question"
)

// ItemStatus represents the processing status of an item.
type ItemStatus string

const (
	StatusPending   ItemStatus = "pending"
	StatusProcessed ItemStatus = "processed"
	StatusDeferred  ItemStatus = "deferred"
	StatusCompleted ItemStatus = "completed"
)

// GTDStage represents the workflow stage of an item.
type GTDStage string

const (
	StageCaptured     GTDStage = "captured"
	StageClarified    GTDStage = "clarified"
	StageOrganized    GTDStage = "organized"
	StageReflected    GTDStage = "reflected"
	StageEngaged      GTDStage = "engaged"
	StageReference    GTDStage = "reference"
	StageSomedayMaybe GTDStage = "someday-maybe"
	StageWaitingFor   GTDStage = "waiting-for"
)

// TimeSensitivity classifies how soon an item demands attention.
type TimeSensitivity string

const (
	TimeUrgent  TimeSensitivity = "urgent"
	TimeSoon    TimeSensitivity = "soon"
	TimeLater   TimeSensitivity = "later"
	TimeSomeday TimeSensitivity = "someday"
)

// DecisionImpact classifies how much a decision rides on the item.
type DecisionImpact string

const (
	ImpactHigh   DecisionImpact = "high"
	ImpactMedium DecisionImpact = "medium"
	ImpactLow    DecisionImpact = "low"
	ImpactNone   DecisionImpact = "none"
)

// StakeholderImportance classifies who the item involves.
type StakeholderImportance string

const (
	StakeholderExecutive    StakeholderImportance = "executive"
	StakeholderClient       StakeholderImportance = "client"
	StakeholderDirectReport StakeholderImportance = "direct-report"
	StakeholderTeam         StakeholderImportance = "team"
	StakeholderVendor       StakeholderImportance = "vendor"
	StakeholderExternal     StakeholderImportance = "external"
)

// StrategicAlignment classifies how close the item sits to core strategy.
type StrategicAlignment string

const (
	AlignCore       StrategicAlignment = "core"
	AlignSupporting StrategicAlignment = "supporting"
	AlignTangential StrategicAlignment = "tangential"
	AlignUnrelated  StrategicAlignment = "unrelated"
)

// OutcomeValue classifies the payoff of completing the item.
type OutcomeValue string

const (
	OutcomeHigh   OutcomeValue = "high"
	OutcomeMedium OutcomeValue = "medium"
	OutcomeLow    OutcomeValue = "low"
)

// Tier is one of five discrete priority buckets derived from the score.
type Tier int

const (
	TierCritical Tier = 1
	TierHigh     Tier = 2
	TierMedium   Tier = 3
	TierLow      Tier = 4
	TierNoise    Tier = 5
)

// Label returns the human name of the tier.
func (t Tier) Label() string {
	switch t {
	case TierCritical:
		return "Critical"
	case TierHigh:
		return "High"
	case TierMedium:
		return "Medium"
	case TierLow:
		return "Low"
	case TierNoise:
		return "Noise"
	default:
		return "Unknown"
	}
}

// Classification holds the categorical outputs of the classifier plus the
// per-dimension confidence that produced them.
type Classification struct {
	TimeSensitivity       TimeSensitivity       `json:"timeSensitivity" validate:"omitempty,oneof=urgent soon later someday"`
	DecisionImpact        DecisionImpact        `json:"decisionImpact" validate:"omitempty,oneof=high medium low none"`
	StakeholderImportance StakeholderImportance `json:"stakeholderImportance" validate:"omitempty,oneof=executive client direct-report team vendor external"`
	StrategicAlignment    StrategicAlignment    `json:"strategicAlignment" validate:"omitempty,oneof=core supporting tangential unrelated"`
	OutcomeValue          OutcomeValue          `json:"outcomeValue" validate:"omitempty,oneof=high medium low"`
	Confidence            map[string]float64    `json:"confidence,omitempty"`
}

// InformationItem is the unit of work flowing through the intake pipeline.
// Field names and types are part of the durable contract.
type InformationItem struct {
	ID        string   `json:"id" validate:"required,uuid4"`
	Source    string   `json:"source" validate:"required"`
	SourceRef string   `json:"sourceRef,omitempty"`
	Type      ItemType `json:"type" validate:"required,oneof=email meeting task decision strategic-initiative question"`
	Title     string   `json:"title" validate:"required,min=1,max=255"`
	Content   string   `json:"content,omitempty"`

	CapturedAt time.Time `json:"capturedAt" validate:"required"`

	Classification Classification `json:"classification"`
	NeedsReview    bool           `json:"needsReview,omitempty"`

	// PriorityScore is derived; it is never edited directly. Only Tier may
	// be force-overridden, and only through an OverrideEvent.
	PriorityScore int  `json:"priorityScore" validate:"min=0,max=100"`
	Tier          Tier `json:"tier" validate:"omitempty,min=1,max=5"`
	// ScoredWith records the weight-configuration version the score was
	// computed against, so past scores stay explainable.
	ScoredWith int `json:"scoredWith,omitempty"`

	Actionable    bool       `json:"actionable"`
	NextAction    string     `json:"nextAction,omitempty"`
	ContextTags   []string   `json:"contextTags,omitempty"`
	ProjectID     *string    `json:"projectId,omitempty" validate:"omitempty,uuid4"`
	InitiativeIDs []string   `json:"initiativeIds,omitempty"`
	DueAt         *time.Time `json:"dueAt,omitempty"`

	Stage         GTDStage   `json:"gtdStage" validate:"required,oneof=captured clarified organized reflected engaged reference someday-maybe waiting-for"`
	Status        ItemStatus `json:"status" validate:"required,oneof=pending processed deferred completed"`
	BatchReviewAt *time.Time `json:"batchReviewAt,omitempty"`

	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	Notes       []string   `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt   time.Time  `json:"updatedAt" validate:"required"`
}

// ItemList represents a collection of items as persisted by the file store.
type ItemList struct {
	Items      []InformationItem `json:"items" validate:"dive"`
	TotalCount int               `json:"totalCount"`
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}

// NewItem creates an item in its initial captured state with default
// timestamps. The id must be store-assigned.
func NewItem(id, source string, itemType ItemType, title string) *InformationItem {
	now := time.Now()
	return &InformationItem{
		ID:         id,
		Source:     source,
		Type:       itemType,
		Title:      title,
		CapturedAt: now,
		Stage:      StageCaptured,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddNote appends a timestamped audit note to the item.
func (i *InformationItem) AddNote(note string) {
	i.Notes = append(i.Notes, fmt.Sprintf("%s %s", time.Now().Format(time.RFC3339), note))
}

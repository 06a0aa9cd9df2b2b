package classify

import (
	"context"
	"strings"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
)

// DefaultConfidenceThreshold is the per-dimension floor below which the
// classification falls back to its lowest-urgency value.
const DefaultConfidenceThreshold = 0.4

// rule maps a keyword to a categorical value with a match strength.
type rule struct {
	keyword  string
	strength float64
}

// RuleClassifier is the reference keyword/heuristic implementation.
type RuleClassifier struct {
	threshold float64
}

// NewRuleClassifier creates a rule classifier with the given confidence
// threshold; a non-positive threshold selects the default.
func NewRuleClassifier(threshold float64) *RuleClassifier {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &RuleClassifier{threshold: threshold}
}

var timeRules = map[models.TimeSensitivity][]rule{
	models.TimeUrgent: {
		{"urgent", 0.9}, {"asap", 0.9}, {"immediately", 0.8}, {"eod", 0.7},
		{"today", 0.6}, {"overdue", 0.9}, {"deadline", 0.6},
	},
	models.TimeSoon: {
		{"this week", 0.7}, {"tomorrow", 0.7}, {"soon", 0.6}, {"by friday", 0.7},
	},
	models.TimeSomeday: {
		{"someday", 0.8}, {"eventually", 0.7}, {"no rush", 0.7}, {"whenever", 0.6},
	},
}

var impactRules = map[models.DecisionImpact][]rule{
	models.ImpactHigh: {
		{"approve", 0.7}, {"decision", 0.7}, {"sign-off", 0.8}, {"sign off", 0.8},
		{"budget", 0.6}, {"contract", 0.6}, {"go/no-go", 0.9}, {"hire", 0.6},
	},
	models.ImpactMedium: {
		{"review", 0.5}, {"feedback", 0.5}, {"input needed", 0.6}, {"recommend", 0.5},
	},
	models.ImpactLow: {
		{"fyi", 0.6}, {"heads up", 0.6}, {"update", 0.4},
	},
}

var stakeholderRules = map[models.StakeholderImportance][]rule{
	models.StakeholderExecutive: {
		{"ceo", 0.9}, {"cfo", 0.9}, {"coo", 0.9}, {"board", 0.8}, {"vp", 0.7}, {"executive", 0.7},
	},
	models.StakeholderClient: {
		{"client", 0.8}, {"customer", 0.7}, {"account", 0.5},
	},
	models.StakeholderDirectReport: {
		{"direct report", 0.8}, {"1:1", 0.6}, {"one-on-one", 0.6},
	},
	models.StakeholderTeam: {
		{"team", 0.6}, {"standup", 0.6}, {"sprint", 0.5},
	},
	models.StakeholderVendor: {
		{"vendor", 0.8}, {"supplier", 0.8}, {"invoice", 0.5},
	},
}

var alignmentRules = map[models.StrategicAlignment][]rule{
	models.AlignCore: {
		{"strategic", 0.7}, {"okr", 0.8}, {"roadmap", 0.6}, {"initiative", 0.6}, {"quarterly goal", 0.8},
	},
	models.AlignSupporting: {
		{"enablement", 0.6}, {"process", 0.4}, {"hiring", 0.5}, {"tooling", 0.5},
	},
	models.AlignTangential: {
		{"newsletter", 0.6}, {"conference", 0.5}, {"webinar", 0.6},
	},
}

var outcomeRules = map[models.OutcomeValue][]rule{
	models.OutcomeHigh: {
		{"revenue", 0.7}, {"launch", 0.6}, {"unblock", 0.6}, {"critical path", 0.8},
	},
	models.OutcomeMedium: {
		{"improve", 0.5}, {"optimize", 0.5}, {"prepare", 0.4},
	},
}

// senderRoleMap shortcuts stakeholder classification when ingestion
// already knows the sender's role.
var senderRoleMap = map[string]models.StakeholderImportance{
	"executive":     models.StakeholderExecutive,
	"client":        models.StakeholderClient,
	"direct-report": models.StakeholderDirectReport,
	"team":          models.StakeholderTeam,
	"vendor":        models.StakeholderVendor,
	"external":      models.StakeholderExternal,
}

// Classify applies the keyword tables to the item's signals. Any dimension
// whose best match falls below the threshold defaults to its
// lowest-urgency value and flags the result for review.
func (c *RuleClassifier) Classify(_ context.Context, sig Signals) (Result, error) {
	text := strings.ToLower(sig.Title + " " + sig.Content + " " + strings.Join(sig.Keywords, " "))

	res := Result{Classification: lowestUrgency()}
	res.Classification.Confidence = map[string]float64{}

	ts, conf := bestMatch(text, timeRules)
	res.Classification.Confidence[DimTimeSensitivity] = conf
	if conf >= c.threshold {
		res.Classification.TimeSensitivity = ts
	}
	// A concrete due date overrides keyword silence on urgency.
	if sig.DueAt != nil {
		now := sig.Now
		if now.IsZero() {
			now = time.Now()
		}
		res.Classification.Confidence[DimTimeSensitivity] = 1.0
		switch until := sig.DueAt.Sub(now); {
		case until <= 24*time.Hour:
			res.Classification.TimeSensitivity = models.TimeUrgent
		case until <= 7*24*time.Hour:
			res.Classification.TimeSensitivity = models.TimeSoon
		default:
			res.Classification.TimeSensitivity = models.TimeLater
		}
	}

	impact, conf := bestMatch(text, impactRules)
	if sig.Type == models.TypeDecision && conf < 0.7 {
		impact, conf = models.ImpactHigh, 0.7
	}
	res.Classification.Confidence[DimDecisionImpact] = conf
	if conf >= c.threshold {
		res.Classification.DecisionImpact = impact
	}

	stakeholder, conf := bestMatch(text, stakeholderRules)
	if role, ok := senderRoleMap[strings.ToLower(sig.SenderRole)]; ok {
		stakeholder, conf = role, 1.0
	}
	res.Classification.Confidence[DimStakeholder] = conf
	if conf >= c.threshold {
		res.Classification.StakeholderImportance = stakeholder
	}

	alignment, conf := bestMatch(text, alignmentRules)
	if sig.Type == models.TypeInitiative && conf < 0.8 {
		alignment, conf = models.AlignCore, 0.8
	}
	res.Classification.Confidence[DimAlignment] = conf
	if conf >= c.threshold {
		res.Classification.StrategicAlignment = alignment
	}

	outcome, conf := bestMatch(text, outcomeRules)
	res.Classification.Confidence[DimOutcome] = conf
	if conf >= c.threshold {
		res.Classification.OutcomeValue = outcome
	}

	for _, v := range res.Classification.Confidence {
		if v < c.threshold {
			res.NeedsReview = true
			break
		}
	}

	res.Actionable, res.NextAction = actionability(sig, text)
	res.ContextTags = contextTags(text)
	return res, nil
}

// bestMatch returns the value whose strongest matching keyword wins, with
// that keyword's strength as confidence. No match returns zero confidence.
func bestMatch[T comparable](text string, rules map[T][]rule) (T, float64) {
	var best T
	bestConf := 0.0
	for value, set := range rules {
		for _, r := range set {
			if r.strength > bestConf && strings.Contains(text, r.keyword) {
				best = value
				bestConf = r.strength
			}
		}
	}
	return best, bestConf
}

func actionability(sig Signals, text string) (bool, string) {
	switch sig.Type {
	case models.TypeTask:
		return true, "do: " + sig.Title
	case models.TypeDecision:
		return true, "decide: " + sig.Title
	case models.TypeQuestion:
		return true, "answer: " + sig.Title
	}
	for _, kw := range []string{"please", "can you", "need you to", "action required", "respond"} {
		if strings.Contains(text, kw) {
			return true, "respond: " + sig.Title
		}
	}
	return false, ""
}

func contextTags(text string) []string {
	var tags []string
	if strings.Contains(text, "waiting") || strings.Contains(text, "blocked on") {
		tags = append(tags, "@waiting-for")
	}
	if strings.Contains(text, "call") || strings.Contains(text, "phone") {
		tags = append(tags, "@calls")
	}
	if strings.Contains(text, "meeting") || strings.Contains(text, "agenda") {
		tags = append(tags, "@meetings")
	}
	if strings.Contains(text, "deep work") || strings.Contains(text, "write up") || strings.Contains(text, "draft") {
		tags = append(tags, "@focus")
	}
	return tags
}

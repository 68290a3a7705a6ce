package models

import "time"

// Proposal status constants
const (
	ProposalStatusOpen     = "proposal"
	ProposalStatusPromoted = "promoted"
	ProposalStatusRejected = "rejected"
)

// Vote choice constants
const (
	ChoiceAgree    = "agree"
	ChoiceDisagree = "disagree"
)

// Signer type constants
const (
	SignerIndividual   = "individual"
	SignerOrganization = "organization"
)

// PromotedFromProposal marks topics that entered the registry through the
// proposal lifecycle rather than the seed list or an admin.
const PromotedFromProposal = "proposal"

// DeadlineLayout is the calendar-date format used for topic deadlines.
// A deadline is inclusive through 23:59:59 local time on that date.
const DeadlineLayout = "2006-01-02"

// Request types

type CreateTopicRequest struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	Detail       string `json:"detail"`
	AgreeText    string `json:"agree_text"`
	DisagreeText string `json:"disagree_text"`
	Color        string `json:"color"`
	Deadline     string `json:"deadline"`
}

type CastVoteRequest struct {
	Choice string `json:"choice"`
}

type CreateProposalRequest struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	Detail       string `json:"detail"`
	ProposerName string `json:"proposer_name"`
}

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type CreateSignatureRequest struct {
	ConsentPrivacy bool `json:"consent_privacy"`
	ConsentTerms   bool `json:"consent_terms"`

	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Address         string   `json:"address"`
	AddressVerified bool     `json:"address_verified"`
	Talent          string   `json:"talent"`
	Phone           string   `json:"phone"`
	SNS             []string `json:"sns"`

	ConfirmationID string `json:"confirmation_id"`
	Code           string `json:"code"`
}

// Response types

type CreateTopicResponse struct {
	TopicID string `json:"topic_id"`
}

type CastVoteResponse struct {
	TopicID string `json:"topic_id"`
	Choice  string `json:"choice"`
	Tally   Tally  `json:"tally"`
}

type ResetVoteResponse struct {
	TopicID string `json:"topic_id"`
	Tally   Tally  `json:"tally"`
}

type CreateProposalResponse struct {
	ProposalID string `json:"proposal_id"`
}

type SupportResponse struct {
	ProposalID   string `json:"proposal_id"`
	SupportCount int    `json:"support_count"`
}

type ProposalListResponse struct {
	Active   []PendingProposal `json:"active"`
	Rejected []Proposal        `json:"rejected"`
	Promoted []Topic           `json:"promoted"`
}

type SendOTPResponse struct {
	ConfirmationID string `json:"confirmation_id"`
}

type CreateSignatureResponse struct {
	SignatureID string `json:"signature_id"`
	Count       int    `json:"count"`
}

type SignatureCountResponse struct {
	Count             int    `json:"count"`
	Formatted         string `json:"formatted"`
	TodayCount        int    `json:"today_count"`
	DailyLimitReached bool   `json:"daily_limit_reached"`
}

type SignatureListResponse struct {
	Signatures []PublicSignature `json:"signatures"`
	Count      int               `json:"count"`
	Formatted  string            `json:"formatted"`
}

// Domain types

type Topic struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle,omitempty"`
	Description  string    `json:"description,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	AgreeText    string    `json:"agree_text,omitempty"`
	DisagreeText string    `json:"disagree_text,omitempty"`
	Color        string    `json:"color,omitempty"`
	Deadline     string    `json:"deadline"`
	StartDate    string    `json:"start_date,omitempty"`
	PromotedFrom string    `json:"promoted_from,omitempty"`
	ProposerName string    `json:"proposer_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TopicView is a Topic plus derived, per-request state.
type TopicView struct {
	Topic
	Expired      bool   `json:"expired"`
	Tally        Tally  `json:"tally"`
	MyVote       string `json:"my_vote,omitempty"`
	AlreadyVoted bool   `json:"already_voted"`
}

type TopicListResponse struct {
	Active  []TopicView `json:"active"`
	Expired []TopicView `json:"expired"`
}

type Proposal struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle,omitempty"`
	Description    string     `json:"description,omitempty"`
	Detail         string     `json:"detail,omitempty"`
	ProposerName   string     `json:"proposer_name"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	PromotedAt     *time.Time `json:"promoted_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
}

// PendingProposal is an open proposal annotated for display.
type PendingProposal struct {
	Proposal
	SupportCount  int `json:"support_count"`
	DaysRemaining int `json:"days_remaining"`
}

type Signature struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Address     string    `json:"address,omitempty"`
	Talent      string    `json:"talent,omitempty"`
	Phone       string    `json:"-"` // Never expose in JSON
	SNS         []string  `json:"sns,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"-"` // Never expose in JSON
	LoginMethod string    `json:"-"` // Never expose in JSON
	UserEmail   string    `json:"-"` // Never expose in JSON
}

// PublicSignature is the display projection of a Signature.
type PublicSignature struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Address     string    `json:"address,omitempty"`
	MaskedPhone string    `json:"masked_phone"`
	Timestamp   time.Time `json:"timestamp"`
}

// Identity is a resolved caller. A zero UID means anonymous. AdminTest
// marks the operational-testing identity that bypasses vote/support
// uniqueness with synthetic per-call keys.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	Provider    string
	AdminTest   bool
}

// Anonymous reports whether no user identity was resolved.
func (id Identity) Anonymous() bool { return id.UID == "" }

// Tally is an agree/disagree count pair for one topic or proposal.
type Tally struct {
	Agree    int `json:"agree"`
	Disagree int `json:"disagree"`
}

func (t Tally) Total() int { return t.Agree + t.Disagree }

// AgreePercent returns the agree share for display, defaulting to 50
// when nobody has voted.
func (t Tally) AgreePercent() float64 {
	if t.Total() == 0 {
		return 50
	}
	return float64(t.Agree) / float64(t.Total()) * 100
}

// Majority compares raw counts, not rounded percentages, so small-N
// ties are never distorted into a winner.
func (t Tally) Majority() string {
	switch {
	case t.Agree > t.Disagree:
		return ChoiceAgree
	case t.Disagree > t.Agree:
		return ChoiceDisagree
	default:
		return "tie"
	}
}

// ValidChoice reports whether s is a recognized vote choice.
func ValidChoice(s string) bool {
	return s == ChoiceAgree || s == ChoiceDisagree
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ABOUTME: AppSettings aggregate and its sub-records as persisted in the settings blob
// ABOUTME: Typed enumerations for relationships, gestures, decoys, voice, and privacy

package settings

// SchemaVersion is the version tag written into every settings blob.
const SchemaVersion = 1

// MaxContacts bounds the emergency contact list.
const MaxContacts = 5

// Sensitivity bounds for shake detection. Values outside are clamped at the
// point of use, never rejected.
const (
	MinShakeSensitivity = 0.5
	MaxShakeSensitivity = 3.0
)

// Relationship describes how a contact relates to the user
type Relationship string

const (
	RelationshipParent   Relationship = "Parent"
	RelationshipSibling  Relationship = "Sibling"
	RelationshipSpouse   Relationship = "Spouse"
	RelationshipPartner  Relationship = "Partner"
	RelationshipFriend   Relationship = "Friend"
	RelationshipRoommate Relationship = "Roommate"
	RelationshipCoworker Relationship = "Coworker"
	RelationshipOther    Relationship = "Other"
)

// Relationships lists every known relationship in picker order.
var Relationships = []Relationship{
	RelationshipParent, RelationshipSibling, RelationshipSpouse, RelationshipPartner,
	RelationshipFriend, RelationshipRoommate, RelationshipCoworker, RelationshipOther,
}

// Valid reports whether r is a known relationship.
func (r Relationship) Valid() bool {
	for _, known := range Relationships {
		if r == known {
			return true
		}
	}
	return false
}

// GestureType is the distress gesture the app listens for
type GestureType string

const (
	GestureShake  GestureType = "shake"
	GestureVolume GestureType = "volume"
	GesturePower  GestureType = "power"
)

// Valid reports whether g is a known gesture type.
func (g GestureType) Valid() bool {
	switch g {
	case GestureShake, GestureVolume, GesturePower:
		return true
	}
	return false
}

// DecoyType selects the disguise screen
type DecoyType string

const (
	DecoyCalculator DecoyType = "calculator"
	DecoyWeather    DecoyType = "weather"
	DecoyNotes      DecoyType = "notes"
	DecoyBrowser    DecoyType = "browser"
)

// Valid reports whether d is a known decoy screen.
func (d DecoyType) Valid() bool {
	switch d {
	case DecoyCalculator, DecoyWeather, DecoyNotes, DecoyBrowser:
		return true
	}
	return false
}

// VoiceType and VoiceTone configure the fake-call voice.
type (
	VoiceType string
	VoiceTone string
)

const (
	VoiceFemale  VoiceType = "female"
	VoiceMale    VoiceType = "male"
	VoiceNeutral VoiceType = "neutral"

	ToneCasual       VoiceTone = "casual"
	ToneConcerned    VoiceTone = "concerned"
	ToneProfessional VoiceTone = "professional"
)

func (v VoiceType) Valid() bool {
	return v == VoiceFemale || v == VoiceMale || v == VoiceNeutral
}

func (t VoiceTone) Valid() bool {
	return t == ToneCasual || t == ToneConcerned || t == ToneProfessional
}

// AutoDeletePolicy controls retention of location history and alert logs
type AutoDeletePolicy string

const (
	AutoDelete24h   AutoDeletePolicy = "24h"
	AutoDelete7d    AutoDeletePolicy = "7d"
	AutoDeleteNever AutoDeletePolicy = "never"
)

// Valid reports whether p is a known retention policy.
func (p AutoDeletePolicy) Valid() bool {
	return p == AutoDelete24h || p == AutoDelete7d || p == AutoDeleteNever
}

// LocationSharingPolicy controls when location may be shared
type LocationSharingPolicy string

const (
	LocationSharingAlways       LocationSharingPolicy = "always"
	LocationSharingDuringAlerts LocationSharingPolicy = "duringAlerts"
	LocationSharingNever        LocationSharingPolicy = "never"
)

func (p LocationSharingPolicy) Valid() bool {
	switch p {
	case LocationSharingAlways, LocationSharingDuringAlerts, LocationSharingNever:
		return true
	}
	return false
}

// EmergencyContact is a person alerted when the emergency trigger fires.
// ID is assigned once at creation and never reassigned.
type EmergencyContact struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	Phone         string       `json:"phone" yaml:"phone"`
	Relationship  Relationship `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	CustomMessage string       `json:"customMessage,omitempty" yaml:"custom_message,omitempty"`
}

// GestureSettings configures the distress gesture
type GestureSettings struct {
	Enabled      bool        `json:"enabled" yaml:"enabled"`
	Type         GestureType `json:"type" yaml:"type"`
	PracticeMode bool        `json:"practiceMode" yaml:"practice_mode"`
	// 0.5 (least sensitive) to 3.0 (most sensitive); stored as entered
	ShakeSensitivity float64 `json:"shakeSensitivity" yaml:"shake_sensitivity"`
}

// TemplateSettings holds the alert message template
type TemplateSettings struct {
	DefaultMessage string `json:"defaultMessage" yaml:"default_message"`
}

// VoiceSettings configures the fake-call voice
type VoiceSettings struct {
	VoiceType VoiceType `json:"voiceType" yaml:"voice_type"`
	Tone      VoiceTone `json:"tone" yaml:"tone"`
	Volume    float64   `json:"volume" yaml:"volume"` // 0..1
}

// DecoySettings configures the disguise screen
type DecoySettings struct {
	Enabled      bool      `json:"enabled" yaml:"enabled"`
	Selected     DecoyType `json:"selected" yaml:"selected"`
	PracticeMode bool      `json:"practiceMode" yaml:"practice_mode"`
}

// PrivacySettings configures data retention
type PrivacySettings struct {
	AutoDelete      AutoDeletePolicy      `json:"autoDelete" yaml:"auto_delete"`
	LocationSharing LocationSharingPolicy `json:"locationSharing" yaml:"location_sharing"`
}

// AppSettings is the single settings aggregate of an installation.
type AppSettings struct {
	Version               int                `json:"version" yaml:"version"`
	EmergencyContacts     []EmergencyContact `json:"emergencyContacts" yaml:"emergency_contacts"`
	WalkingModeAutoNotify bool               `json:"walkingModeAutoNotify" yaml:"walking_mode_auto_notify"`

	Gesture   GestureSettings  `json:"gesture" yaml:"gesture"`
	Templates TemplateSettings `json:"templates" yaml:"templates"`
	Voice     VoiceSettings    `json:"voice" yaml:"voice"`
	Decoy     DecoySettings    `json:"decoy" yaml:"decoy"`
	Privacy   PrivacySettings  `json:"privacy" yaml:"privacy"`
}

// Clone returns a copy that shares no mutable memory with s.
func (s AppSettings) Clone() AppSettings {
	c := s
	c.EmergencyContacts = make([]EmergencyContact, len(s.EmergencyContacts))
	copy(c.EmergencyContacts, s.EmergencyContacts)
	return c
}

// Partial is a partial settings record. Nil fields are left unchanged when
// the partial is merged into existing settings.
type Partial struct {
	EmergencyContacts     []EmergencyContact `json:"emergencyContacts,omitempty"`
	WalkingModeAutoNotify *bool              `json:"walkingModeAutoNotify,omitempty"`
	Gesture               *GestureSettings   `json:"gesture,omitempty"`
	Templates             *TemplateSettings  `json:"templates,omitempty"`
	Voice                 *VoiceSettings     `json:"voice,omitempty"`
	Decoy                 *DecoySettings     `json:"decoy,omitempty"`
	Privacy               *PrivacySettings   `json:"privacy,omitempty"`
}

// Apply overlays the non-nil fields of p onto s and returns the result.
func (p Partial) Apply(s AppSettings) AppSettings {
	next := s.Clone()
	if p.EmergencyContacts != nil {
		next.EmergencyContacts = append([]EmergencyContact(nil), p.EmergencyContacts...)
	}
	if p.WalkingModeAutoNotify != nil {
		next.WalkingModeAutoNotify = *p.WalkingModeAutoNotify
	}
	if p.Gesture != nil {
		next.Gesture = *p.Gesture
	}
	if p.Templates != nil {
		next.Templates = *p.Templates
	}
	if p.Voice != nil {
		next.Voice = *p.Voice
	}
	if p.Decoy != nil {
		next.Decoy = *p.Decoy
	}
	if p.Privacy != nil {
		next.Privacy = *p.Privacy
	}
	return next
}

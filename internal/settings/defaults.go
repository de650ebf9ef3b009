// ABOUTME: Hard-coded default settings that stored records are overlaid onto
// ABOUTME: New fields added here survive when an older stored blob is loaded

package settings

// DefaultMessage is the initial alert template.
const DefaultMessage = "Hi, this is [NAME]. I may be in danger. My location is [LOCATION]. " +
	"Time: [TIME]. Please help and contact emergency services if needed."

// DefaultShakeSensitivity is the initial shake sensitivity.
const DefaultShakeSensitivity = 1.4

// DefaultVoiceVolume is the initial fake-call volume.
const DefaultVoiceVolume = 0.8

// Defaults returns a fresh copy of the default settings.
func Defaults() AppSettings {
	return AppSettings{
		Version:               SchemaVersion,
		EmergencyContacts:     []EmergencyContact{},
		WalkingModeAutoNotify: true,
		Gesture: GestureSettings{
			Enabled:          true,
			Type:             GestureShake,
			PracticeMode:     true,
			ShakeSensitivity: DefaultShakeSensitivity,
		},
		Templates: TemplateSettings{
			DefaultMessage: DefaultMessage,
		},
		Voice: VoiceSettings{
			VoiceType: VoiceNeutral,
			Tone:      ToneConcerned,
			Volume:    DefaultVoiceVolume,
		},
		Decoy: DecoySettings{
			Enabled:      true,
			Selected:     DecoyCalculator,
			PracticeMode: true,
		},
		Privacy: PrivacySettings{
			AutoDelete:      AutoDelete7d,
			LocationSharing: LocationSharingDuringAlerts,
		},
	}
}

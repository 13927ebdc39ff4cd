package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Language represents a supported language
type Language string

const (
	// English language
	LanguageEnglish Language = "en"
	// Hindi language
	LanguageHindi Language = "hi"
)

// Translator manages translations for the application
type Translator struct {
	currentLanguage Language
	translations    map[Language]map[string]string
	mu              sync.RWMutex
}

// NewTranslator creates a new translator with default language
func NewTranslator(language Language) *Translator {
	t := &Translator{
		currentLanguage: language,
		translations:    make(map[Language]map[string]string),
	}
	t.translations[LanguageEnglish] = DefaultEnglishTranslations()
	t.translations[LanguageHindi] = DefaultHindiTranslations()
	return t
}

// LoadTranslations loads translations from JSON data, replacing the
// built-in table for that language
func (t *Translator) LoadTranslations(language Language, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var translations map[string]string
	if err := json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal translations: %w", err)
	}

	t.translations[language] = translations
	return nil
}

// LoadTranslationsFromFile loads translations from a JSON file
func (t *Translator) LoadTranslationsFromFile(language Language, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read translation file: %w", err)
	}

	return t.LoadTranslations(language, data)
}

// SetLanguage sets the current language
func (t *Translator) SetLanguage(language Language) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentLanguage = language
}

// GetLanguage returns the current language
func (t *Translator) GetLanguage() Language {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentLanguage
}

// Translate translates a key in the current language
func (t *Translator) Translate(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if translations, ok := t.translations[t.currentLanguage]; ok {
		if text, ok := translations[key]; ok {
			return text
		}
	}

	// Fallback to English if translation not found
	if t.currentLanguage != LanguageEnglish {
		if translations, ok := t.translations[LanguageEnglish]; ok {
			if text, ok := translations[key]; ok {
				return text
			}
		}
	}

	// Return key itself if no translation found
	return key
}

// TranslateWithFormat translates a key and formats with parameters
func (t *Translator) TranslateWithFormat(key string, params map[string]string) string {
	text := t.Translate(key)

	for param, value := range params {
		placeholder := fmt.Sprintf("{%s}", param)
		text = strings.ReplaceAll(text, placeholder, value)
	}

	return text
}

// HasTranslation checks if a translation key exists
func (t *Translator) HasTranslation(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if translations, ok := t.translations[t.currentLanguage]; ok {
		_, ok := translations[key]
		return ok
	}

	return false
}

// ValidateLanguage validates that a language is supported
func ValidateLanguage(language string) bool {
	return language == string(LanguageEnglish) || language == string(LanguageHindi)
}

// DetectSystemLanguage picks a UI language from the locale environment
func DetectSystemLanguage() Language {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(env); strings.HasPrefix(v, "hi") {
			return LanguageHindi
		}
	}
	return LanguageEnglish
}

// GetSupportedLanguages returns a list of supported languages
func GetSupportedLanguages() []Language {
	return []Language{LanguageEnglish, LanguageHindi}
}

// GlobalTranslator is the process-wide translator set up in main
var GlobalTranslator *Translator

// T translates using the global translator
func T(key string) string {
	if GlobalTranslator == nil {
		return key
	}
	return GlobalTranslator.Translate(key)
}

// TF translates with formatting using the global translator
func TF(key string, params map[string]string) string {
	if GlobalTranslator == nil {
		return key
	}
	return GlobalTranslator.TranslateWithFormat(key, params)
}

// DefaultEnglishTranslations returns default English translations
func DefaultEnglishTranslations() map[string]string {
	return map[string]string{
		// Menu items
		"menu.talk":           "Start Talking",
		"menu.stop":           "Stop",
		"menu.status_page":    "Open Status Page",
		"menu.devices":        "Input Device",
		"menu.device_default": "System Default",
		"menu.notifications":  "Notifications",
		"menu.about":          "About",
		"menu.quit":           "Quit",

		// Status
		"status.idle":       "Idle",
		"status.recording":  "Listening",
		"status.processing": "Thinking",
		"status.playing":    "Speaking",
		"status.error":      "Error",

		// Notifications
		"notify.listening":  "Listening...",
		"notify.thinking":   "Got it, thinking...",
		"notify.speaking":   "Speaking",
		"notify.turn_done":  "Done",
		"notify.pasted":     "Text pasted",
		"notify.timed_out":  "Recording stopped after the time limit",

		// Errors
		"error.permission_denied":  "Microphone access was denied. Allow it in system settings.",
		"error.device_unavailable": "No usable microphone. Reconnect the device and try again.",
		"error.network":            "Could not reach the voice backend.",
		"error.backend":            "The voice backend reported an error: {message}",
		"error.decode":             "The reply audio could not be decoded.",
		"error.playback":           "Audio playback failed.",
		"error.status_page":        "The status page is not available. Restart the application.",

		// Dialogs
		"dialog.retry_title":     "Vaani",
		"dialog.retry_message":   "{message} Try again?",
		"dialog.welcome_title":   "Welcome to Vaani",
		"dialog.welcome_message": "Press {hotkey} to start talking. Settings live at {config}.",
		"dialog.about_message":   "Vaani {version}\nA voice assistant for your desktop.",
	}
}

// DefaultHindiTranslations returns default Hindi translations
func DefaultHindiTranslations() map[string]string {
	return map[string]string{
		// Menu items
		"menu.talk":           "बोलना शुरू करें",
		"menu.stop":           "रोकें",
		"menu.status_page":    "स्टेटस पेज खोलें",
		"menu.devices":        "इनपुट डिवाइस",
		"menu.device_default": "सिस्टम डिफ़ॉल्ट",
		"menu.notifications":  "सूचनाएं",
		"menu.about":          "वाणी के बारे में",
		"menu.quit":           "बंद करें",

		// Status
		"status.idle":       "निष्क्रिय",
		"status.recording":  "सुन रहा है",
		"status.processing": "सोच रहा है",
		"status.playing":    "बोल रहा है",
		"status.error":      "त्रुटि",

		// Notifications
		"notify.listening":  "सुन रहा है...",
		"notify.thinking":   "समझ गया, सोच रहा है...",
		"notify.speaking":   "बोल रहा है",
		"notify.turn_done":  "हो गया",
		"notify.pasted":     "टेक्स्ट पेस्ट हो गया",
		"notify.timed_out":  "समय सीमा के बाद रिकॉर्डिंग रुक गई",

		// Errors
		"error.permission_denied":  "माइक्रोफ़ोन की अनुमति नहीं मिली। सिस्टम सेटिंग्स में अनुमति दें।",
		"error.device_unavailable": "कोई माइक्रोफ़ोन उपलब्ध नहीं है। डिवाइस जोड़कर फिर से कोशिश करें।",
		"error.network":            "वॉइस बैकएंड से संपर्क नहीं हो सका।",
		"error.backend":            "वॉइस बैकएंड ने त्रुटि बताई: {message}",
		"error.decode":             "जवाब की ऑडियो डिकोड नहीं हो सकी।",
		"error.playback":           "ऑडियो प्लेबैक विफल रहा।",
		"error.status_page":        "स्टेटस पेज उपलब्ध नहीं है। एप्लिकेशन फिर से शुरू करें।",

		// Dialogs
		"dialog.retry_title":     "वाणी",
		"dialog.retry_message":   "{message} फिर से कोशिश करें?",
		"dialog.welcome_title":   "वाणी में आपका स्वागत है",
		"dialog.welcome_message": "बोलने के लिए {hotkey} दबाएं। सेटिंग्स {config} में हैं।",
		"dialog.about_message":   "वाणी {version}\nआपके डेस्कटॉप के लिए वॉइस असिस्टेंट।",
	}
}

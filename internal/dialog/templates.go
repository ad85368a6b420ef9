package dialog

import "github.com/aira-ai/control-tower/internal/fsm"

// template is one localized response: the text to speak, the canonical
// successor state, and whether reaching it completes the conversation.
type template struct {
	text  string
	next  fsm.State
	final bool
}

// fallbackText is returned when the resolved state has no templates at all.
const fallbackText = "I'm here to help. Could you tell me more?"

// templateTable is the static (state, language) response lookup. Built once
// at startup and passed by reference; never mutated.
type templateTable map[fsm.State]map[fsm.Language]template

// defaultTemplates returns the canonical localized response table.
func defaultTemplates() templateTable {
	return templateTable{
		fsm.StateGreeting: {
			fsm.LanguageEnglish: {
				text: "Hello! I'm Aira, your AI assistant. How can I help you today? Would you like to learn about our product?",
				next: fsm.StateQualification,
			},
			fsm.LanguageSpanish: {
				text: "¡Hola! Soy Aira, tu asistente de IA. ¿Cómo puedo ayudarte hoy?",
				next: fsm.StateQualification,
			},
		},
		fsm.StateQualification: {
			fsm.LanguageEnglish: {
				text: "Great! Let me ask you a few questions. What industry is your company in?",
				next: fsm.StateQualification,
			},
			fsm.LanguageSpanish: {
				text: "¡Genial! Déjame hacerte algunas preguntas. ¿En qué industria está tu empresa?",
				next: fsm.StateQualification,
			},
		},
		fsm.StateObjectionHandling: {
			fsm.LanguageEnglish: {
				text: "I understand your concern. Let me address that. Our solution offers flexible pricing and a free trial period.",
				next: fsm.StateDemoOffer,
			},
			fsm.LanguageSpanish: {
				text: "Entiendo tu preocupación. Déjame abordar eso. Nuestra solución ofrece precios flexibles y un período de prueba gratuito.",
				next: fsm.StateDemoOffer,
			},
		},
		fsm.StateDemoOffer: {
			fsm.LanguageEnglish: {
				text: "Based on what you've told me, I think our solution would be perfect for you. Would you like to schedule a demo?",
				next: fsm.StateConfirmation,
			},
			fsm.LanguageSpanish: {
				text: "Basándome en lo que me has contado, creo que nuestra solución sería perfecta para ti. ¿Te gustaría programar una demostración?",
				next: fsm.StateConfirmation,
			},
		},
		fsm.StateConfirmation: {
			fsm.LanguageEnglish: {
				text: "Perfect! I've scheduled your demo. You'll receive a confirmation email shortly. Is there anything else I can help you with?",
				next: fsm.StateClosing,
			},
			fsm.LanguageSpanish: {
				text: "¡Perfecto! He programado tu demostración. Recibirás un correo de confirmación pronto. ¿Hay algo más en lo que pueda ayudarte?",
				next: fsm.StateClosing,
			},
		},
		fsm.StateClosing: {
			fsm.LanguageEnglish: {
				text:  "Thank you for your time today! Have a great day!",
				next:  fsm.StateClosing,
				final: true,
			},
			fsm.LanguageSpanish: {
				text:  "¡Gracias por tu tiempo hoy! ¡Que tengas un excelente día!",
				next:  fsm.StateClosing,
				final: true,
			},
		},
	}
}

// lookup returns the template for a state in the requested language, falling
// back to the default language when no localized entry exists.
func (t templateTable) lookup(state fsm.State, language fsm.Language) (template, bool) {
	byLang, ok := t[state]
	if !ok {
		return template{}, false
	}
	if entry, ok := byLang[language]; ok {
		return entry, true
	}
	entry, ok := byLang[fsm.DefaultLanguage]
	return entry, ok
}

package chat

// Fixed assistant texts shown by the widget.
const (
	WelcomeMessage = "¡Bienvenido al asistente técnico de Alemana de Serigrafía! Por favor, completa el siguiente formulario para poder ayudarte mejor."

	AdvisorIntroMessage = "Hola, soy Seri, tu asesor de serigrafía virtual. Cuéntame sobre tu proyecto y te ayudaré a armar el kit de productos perfecto para ti."

	LimitReachedMessage = "Has alcanzado el límite de mensajes. Refresca para iniciar una nueva conversación."

	BackendErrorMessage = "Lo siento, ocurrió un error. Intenta de nuevo."

	RegistrationFailedMessage = "No pudimos guardar tus datos. Por favor, inténtalo de nuevo más tarde."
)

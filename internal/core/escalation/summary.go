package escalation

import (
	"fmt"
	"strings"
)

// Tool names the model may call. They are part of the backend contract.
const (
	ToolSalesAdvisor   = "contactarAsesorVenta"
	ToolSupportAdvisor = "contactarAsesorSoporte"
)

// Argument names of the escalation tools.
const (
	ArgKitSummary = "resumenKit"
	ArgReason     = "motivoConsulta"
	ArgClientName = "nombreCliente"
)

// Plan is what the chat core needs to escalate one tool call.
type Plan struct {
	Channel         Channel
	Summary         string
	Acknowledgement string
}

// PlanFor turns a tool call into an escalation plan. ok is false for tools
// that are not escalations.
func PlanFor(name string, args map[string]string) (Plan, bool) {
	client := strings.TrimSpace(args[ArgClientName])
	switch name {
	case ToolSalesAdvisor:
		return Plan{
			Channel: ChannelSales,
			Summary: fmt.Sprintf("¡Hola! Soy %s. Seri me recomendó el siguiente kit y quisiera finalizar la compra:\n\n*Kit Recomendado:*\n%s",
				client, strings.TrimSpace(args[ArgKitSummary])),
			Acknowledgement: "¡Perfecto! Te estoy redirigiendo a WhatsApp para que un asesor complete tu pedido.",
		}, true
	case ToolSupportAdvisor:
		return Plan{
			Channel:         ChannelSupport,
			Summary:         fmt.Sprintf("¡Hola! Soy %s y necesito ayuda con lo siguiente: %s", client, strings.TrimSpace(args[ArgReason])),
			Acknowledgement: "Claro que sí. Un asesor humano te atenderá por WhatsApp en un momento.",
		}, true
	}
	return Plan{}, false
}

package llm

import (
	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/alemana-chat/internal/core/escalation"
)

const clientNameDescription = "El nombre del cliente que se obtuvo del formulario inicial."

// escalationTools declares the two hand-over functions the model may call.
func escalationTools() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        escalation.ToolSalesAdvisor,
				Description: "Redirige al usuario a WhatsApp para finalizar la compra de un kit de productos con un asesor humano.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						escalation.ArgKitSummary: {
							Type:        genai.TypeString,
							Description: `Un resumen claro y conciso del kit de productos recomendado. Ej: "Kit para camisetas de algodón: Emulsión Ulano, Tintas Printop (rojo, negro), Malla 90."`,
						},
						escalation.ArgClientName: {
							Type:        genai.TypeString,
							Description: clientNameDescription,
						},
					},
					Required: []string{escalation.ArgKitSummary, escalation.ArgClientName},
				},
			},
			{
				Name:        escalation.ToolSupportAdvisor,
				Description: "Redirige al usuario a WhatsApp para que reciba ayuda de un asesor humano.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						escalation.ArgReason: {
							Type:        genai.TypeString,
							Description: "Un resumen del problema o la pregunta del cliente para darle contexto al asesor humano.",
						},
						escalation.ArgClientName: {
							Type:        genai.TypeString,
							Description: clientNameDescription,
						},
					},
					Required: []string{escalation.ArgReason, escalation.ArgClientName},
				},
			},
		},
	}}
}

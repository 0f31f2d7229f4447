package analyzer

import "strings"

// summaryTextLimit bounds the statement text sent with the summary prompt.
const summaryTextLimit = 6000

const summaryFields = `{
  "fecha_corte": "DD/MM/YYYY",
  "fecha_inicio_periodo": "DD/MM/YYYY",
  "fecha_pago": "DD/MM/YYYY",
  "cupo_autorizado": 0.00,
  "cupo_disponible": 0.00,
  "cupo_utilizado": 0.00,
  "deuda_anterior": 0.00,
  "consumos_debitos": 0.00,
  "otros_cargos": 0.00,
  "consumos_cargos_totales": 0.00,
  "pagos_creditos": 0.00,
  "intereses": 0.00,
  "minimo_a_pagar": 0.00,
  "deuda_total_pagar": 0.00,
  "nombre_banco": "",
  "tipo_tarjeta": "",
  "ultimos_digitos": ""`

const movementsField = `,
  "movimientos_detallados": [
    {"fecha": "DD/MM/YYYY", "descripcion": "", "monto": 0.00, "categoria": "", "tipo_transaccion": "consumo|pago|interes|cargo|otro"}
  ]`

const summaryRules = `Reglas:
- Si un campo no aparece, usa 0.00 para montos y "" para textos.
- Montos como números decimales con punto (1500.50). Fechas en formato DD/MM/YYYY.
- "consumos_debitos" solo incluye la sección principal de consumos; "otros_cargos" los cargos separados (seguros, tarifas, cargos automáticos); "consumos_cargos_totales" es la suma de ambos.
- "tipo_tarjeta" es el nombre completo de la tarjeta (por ejemplo "VISA GOLD"), "ultimos_digitos" solo los últimos dígitos visibles.
- Responde únicamente con el JSON, sin texto adicional ni bloques de código.`

const movementRules = `
Movimientos:
- Incluye todos los movimientos de todas las secciones, también los repetidos.
- Copia la descripción exacta del documento.
- "monto" siempre positivo; la naturaleza se indica con "tipo_transaccion".
- Si un movimiento no tiene fecha, usa la fecha de corte.
- "categoria" es una de: Alimentación, Transporte, Entretenimiento, Salud, Vivienda, Educación, Servicios, Compras, Otros.`

// BuildPrompt returns the extraction prompt. The detailed variant also asks
// for every line item; the summary variant truncates the statement text.
func BuildPrompt(text string, detailed bool) string {
	var b strings.Builder
	b.WriteString("Analiza el siguiente estado de cuenta de tarjeta de crédito y devuelve exactamente este JSON:\n\n")
	b.WriteString(summaryFields)
	if detailed {
		b.WriteString(movementsField)
	}
	b.WriteString("\n}\n\n")
	b.WriteString(summaryRules)
	if detailed {
		b.WriteString("\n")
		b.WriteString(movementRules)
	} else if r := []rune(text); len(r) > summaryTextLimit {
		text = string(r[:summaryTextLimit])
	}
	b.WriteString("\n\nTEXTO DEL ESTADO DE CUENTA:\n")
	b.WriteString(text)
	return b.String()
}

package cardtoken

// GenericMessage is shown for any code without a specific translation.
const GenericMessage = "Não foi possível processar os dados do cartão. Confira as informações e tente novamente."

// messages maps secure-field and card rejection codes to pt-BR text that
// tells the payer what to fix.
var messages = map[string]string{
	// secure field validation
	"205":  "Digite o número do seu cartão.",
	"208":  "Escolha o mês de vencimento.",
	"209":  "Escolha o ano de vencimento.",
	"212":  "Informe seu documento.",
	"213":  "Informe seu documento.",
	"214":  "Informe seu documento.",
	"220":  "Informe seu banco emissor.",
	"221":  "Digite o nome e sobrenome do titular.",
	"224":  "Digite o código de segurança.",
	"E301": "Há algo de errado com o número do cartão. Digite novamente.",
	"E302": "Confira o código de segurança.",
	"316":  "Por favor, digite um nome válido.",
	"322":  "Confira o tipo de documento.",
	"323":  "Confira seu documento.",
	"324":  "Confira seu documento.",
	"325":  "Confira a data de vencimento.",
	"326":  "Confira a data de vencimento.",

	// payment rejections (status_detail)
	"cc_rejected_bad_filled_card_number":   "Revise o número do cartão.",
	"cc_rejected_bad_filled_date":          "Revise a data de vencimento.",
	"cc_rejected_bad_filled_other":         "Revise os dados do cartão.",
	"cc_rejected_bad_filled_security_code": "Revise o código de segurança do cartão.",
	"cc_rejected_blacklist":                "Não pudemos processar seu pagamento. Use outro cartão.",
	"cc_rejected_call_for_authorize":       "Autorize o pagamento junto ao emissor do cartão e tente novamente.",
	"cc_rejected_card_disabled":            "Ligue para o emissor para ativar seu cartão.",
	"cc_rejected_duplicated_payment":       "Você já fez um pagamento com esse valor. Se precisar pagar novamente, use outro cartão.",
	"cc_rejected_high_risk":                "Seu pagamento foi recusado. Escolha outra forma de pagamento.",
	"cc_rejected_insufficient_amount":      "O cartão não tem saldo suficiente.",
	"cc_rejected_invalid_installments":     "O cartão não aceita esse número de parcelas.",
	"cc_rejected_max_attempts":             "Você atingiu o limite de tentativas. Use outro cartão.",
	"cc_rejected_other_reason":             "O emissor não processou o pagamento. Use outro cartão.",
}

// Message returns the user-facing text for a processor code.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return GenericMessage
}

// Known reports whether code has a specific translation.
func Known(code string) bool {
	_, ok := messages[code]
	return ok
}

// Package domain — chat.go define os tipos da rota POST /v1/support/chat.
//
// Essa rota é a "porta de entrada" do suporte com IA. O usuário conversa
// com o assistente; quando a IA não consegue resolver (ou o usuário pede
// um humano), a resposta vem com a oferta de escalonamento para um
// chamado de suporte, já com assunto e descrição pré-preenchidos a
// partir da conversa.
package domain

// EscalationToken é o marcador que o agente de IA embute na resposta
// quando decide que a conversa precisa de um atendente humano. O token
// NUNCA chega ao usuário: o service remove o marcador e liga a flag de
// escalonamento.
const EscalationToken = "[[FALAR_COM_ATENDENTE]]"

// ============================================================
// Chat — Request/Response entre o chamador e o BFF
// ============================================================

// TranscriptEntry é uma mensagem do histórico da conversa.
// Role é "user" ou "assistant".
type TranscriptEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatRequest é o body que o chamador envia no POST /v1/support/chat.
// History carrega a conversa até aqui para o agente ter contexto e para
// montar o pré-preenchimento do chamado em caso de escalonamento.
type ChatRequest struct {
	Message string            `json:"message"`
	History []TranscriptEntry `json:"history,omitempty"`
}

// EscalationPrefill é o rascunho do chamado oferecido ao usuário quando
// a conversa escala. Ele pode editar antes de abrir o chamado.
type EscalationPrefill struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ChatResponse é o que o BFF devolve pro chamador.
// Quando EscalationOffered é true, Prefill vem preenchido e o frontend
// mostra o botão "Falar com atendente".
type ChatResponse struct {
	Answer            string             `json:"answer"`
	EscalationOffered bool               `json:"escalation_offered"`
	Prefill           *EscalationPrefill `json:"prefill,omitempty"`
}

// ============================================================
// Chat — Request/Response entre o BFF e o agente de suporte
// ============================================================

// SupportAgentRequest é o payload que o BFF envia pro agente de IA
// (POST /v1/chat). History segue no mesmo formato do transcript.
type SupportAgentRequest struct {
	Query   string            `json:"query"`
	UserID  string            `json:"user_id,omitempty"`
	Context string            `json:"context,omitempty"`
	History []TranscriptEntry `json:"history,omitempty"`
}

// SupportAgentResponse é a resposta do agente. Answer pode conter o
// EscalationToken — o service trata isso antes de devolver ao usuário.
type SupportAgentResponse struct {
	Answer     string `json:"answer"`
	TokensUsed int    `json:"tokens_used"`
}

// ============================================================
// Strategy Context — define qual strategy processa a mensagem
// ============================================================

// ChatContext encapsula tudo que uma Strategy precisa para processar
// uma mensagem. É montado pelo ChatService antes de delegar.
type ChatContext struct {
	// UserID do usuário autenticado
	UserID string

	// Message é a mensagem original do usuário
	Message string

	// History é o transcript da conversa até aqui
	History []TranscriptEntry

	// DetectedIntent é a intenção detectada pelo roteador.
	// Exemplos: "human", "general"
	DetectedIntent string
}

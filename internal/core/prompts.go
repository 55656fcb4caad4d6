package core

// prompts.go holds the fixed texts sent to the language model or shown to
// visitors by the chat.

const (
	// SystemPrompt frames the hospital assistant.  It must not diagnose and
	// should point visitors to the schedules and emergency services.
	SystemPrompt = "You are the virtual assistant of the hospital website. " +
		"Answer briefly and politely, in the language the visitor writes in. " +
		"Help with opening hours, doctor schedules, services, medicines listed in the directory and published news. " +
		"Never give a diagnosis or a treatment plan; suggest booking a consultation instead. " +
		"For emergencies tell the visitor to call the emergency number or go to the emergency department immediately."

	// KnowledgeHeader introduces the knowledge-base notes appended to the
	// system prompt.
	KnowledgeHeader = "Reference notes from the hospital knowledge base (use them when relevant):"

	// CapMessage is the reply once a chat session used up its message cap.
	// The model is not called for it.
	CapMessage = "You have reached the message limit for this conversation. Please contact our front desk for further help."

	// ExcerptInstruction asks the model for an article teaser.
	ExcerptInstruction = "Write a two sentence teaser for the following hospital news article. Plain text, no markdown, same language as the article."
)

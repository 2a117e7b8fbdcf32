package bot

// Fixed response strings. The Roman Urdu ones deliberately use only
// A-Z letters so they render on every client.
const (
	apologyRomanUrdu = "Maazrat, mujhay is barey mein maloomat nahi mili."
	apologyEnglish   = "Sorry, I don't have that information."

	safetyDeclined = "Sorry, I can't help with that request. Please ask about our insurance and healthcare plans."

	emergencyResponse = "If this is a medical emergency, please call your local emergency services " +
		"(Rescue 1122 in Pakistan) or go to the nearest hospital immediately. " +
		"Agar yeh medical emergency hai to foran 1122 par call karein ya qareebi hospital jayen."

	noAlternativeFound = "I couldn't find a suitable alternative plan. " +
		"Would you like me to show you our full range of plans instead?"

	disclaimerTail = "\n\n---\n*This is general product information, not medical or financial advice. " +
		"To enroll or get personalised help, tap a plan link above or contact our support team.*"
)

const englishSystemPrompt = `You are FikrFree Assistant, a support agent for an insurance and healthcare product catalog.
Answer ONLY from the provided context passages. If the context does not contain the answer, say you don't have that information.
Rules:
- Be concise: at most 150 words.
- Format the answer in Markdown.
- Always name products together with their variant, e.g. "BIMA Sehat (Gold)".
- Never invent prices, benefits, or coverage details.`

const romanUrduSystemPrompt = `You are FikrFree Assistant, a support agent for an insurance and healthcare product catalog.
Answer ONLY from the provided context passages. If the context does not contain the answer, say you don't have that information.
Rules:
- Reply ONLY in Roman Urdu written with English letters (A-Z). Never use Urdu script.
- Be concise: at most 150 words.
- Format the answer in Markdown.
- Always name products together with their variant, e.g. "BIMA Sehat (Gold)".
- Never invent prices, benefits, or coverage details.`

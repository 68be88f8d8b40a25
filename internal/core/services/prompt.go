package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// tutorInstruction is the base system instruction for every text job
const tutorInstruction = `ROLE:
You are a dedicated, experienced geography teacher helping a student study.
Answer questions following the national curriculum.

PRESENTATION RULES:
1. Header: **[GEOGRAPHY STUDY ASSISTANT - GALAXY RAG]**
2. Topic line: **TOPIC:** [name the topic, upper case]
3. Section hierarchy:
   - **I. MAJOR HEADING (BOLD)**
   - **1. Sub heading (BOLD)**
   - **a) Detail (bold the keyword)**
   - (+ / -) bullet points starting with a **bold** keyword.
4. Tone: friendly, scientific and encouraging. Address the student directly.
5. Formatting:
   - Use TABLES to compare data.
   - Always finish with:
   ---
   **KEY TAKEAWAY:**
   [one or two core ideas]
   ---
`

// preferDocuments closes every system instruction
const preferDocuments = "\nPrefer knowledge from the documents the student uploaded when there is any."

// defaultImageQuestion is asked when the student sent only an image
const defaultImageQuestion = "Analyse this image from a geography perspective."

// defaultImageKnowledge grounds the illustration when retrieval found nothing
const defaultImageKnowledge = "General school geography knowledge about this topic."

// imageOnlyUserMessage is shown as the user turn for an image-only question
const imageOnlyUserMessage = "Answer the question from the image"

// imageOnlyTitle labels auto-saved entries for image-only questions
const imageOnlyTitle = "Question via image"

// welcomeMessage opens every new session
const welcomeMessage = "### **Hello! I am your geography study assistant.**\n\n" +
	"I am ready to answer your questions using the documents you uploaded. What would you like to explore today?\n\n" +
	"Ask in text or attach an image and I will analyse the knowledge and draw a visual diagram to help you learn."

// restoredWelcome opens a session rebuilt from the vault
const restoredWelcome = "### **Previous knowledge restored!**\n\nWe can continue the lesson from the content you saved."

// restoredPrefix marks an assistant turn restored from the vault
const restoredPrefix = "**[RESTORED SESSION]**\n\n"

// SystemInstructions builds the text job's system instructions.
// While ingestion is running the answer is told to hedge on document depth. Once it has
// finished, or nothing is pending but the store holds knowledge, it is told to answer fully.
func SystemInstructions(progress int, ingesting bool, knowledgeCount int) string {
	var b strings.Builder
	b.WriteString(tutorInstruction)

	switch {
	case ingesting && progress < 100:
		fmt.Fprintf(&b, "\n[SYSTEM NOTE]: Only %d%% of the student's documents have been learned so far. "+
			"If a question needs document detail you cannot yet give, say gently that you are still studying "+
			"the uploaded material (currently %d%%) and will add more detail soon.", progress, progress)
	case (ingesting && progress == 100) || (!ingesting && knowledgeCount > 0):
		b.WriteString("\n[SYSTEM NOTE]: All of the student's documents have been learned. " +
			"Answer fully, combining the documents with your own subject expertise.")
	}

	b.WriteString(preferDocuments)
	return b.String()
}

// BuildGenerationRequest assembles the text job request for a question
func BuildGenerationRequest(req domain.AskRequest, grounding, instructions string) domain.GenerationRequest {
	prompt := strings.TrimSpace(req.Query)
	if prompt == "" {
		prompt = defaultImageQuestion
	}

	return domain.GenerationRequest{
		SystemInstructions: instructions,
		Context:            grounding,
		Prompt:             "Student question: " + prompt,
		Image:              req.Image,
	}
}

// BuildImageRequest assembles the image job request.
// Knowledge falls back to general subject knowledge when retrieval found nothing.
func BuildImageRequest(query, grounding string) domain.ImageRequest {
	if grounding == "" {
		grounding = defaultImageKnowledge
	}
	return domain.ImageRequest{
		Prompt:    query,
		Knowledge: grounding,
	}
}

// autoSaveTitle derives the vault title for a settled turn
func autoSaveTitle(req domain.AskRequest) string {
	if q := strings.TrimSpace(req.Query); q != "" {
		return q
	}
	return imageOnlyTitle
}

// userMessage is the content shown for the user's turn
func userMessage(req domain.AskRequest) string {
	if req.Query != "" {
		return req.Query
	}
	return imageOnlyUserMessage
}

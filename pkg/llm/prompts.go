package llm

import (
	"fmt"
)

// credentialCheckPrompt is the smallest request that proves a key works.
const credentialCheckPrompt = "Reply with the single word OK."

// buildTailorPrompt embeds the job and résumé verbatim and describes the reply shape.
func buildTailorPrompt(job, resume string) (prompt string) {
	prompt = fmt.Sprintf(`You are an expert resume tailor and career coach. Analyze the following job description and resume, then provide detailed suggestions to tailor the resume for this specific role.

JOB DESCRIPTION:
%s

CURRENT RESUME:
%s

Please analyze and respond with a JSON object (no markdown, just pure JSON) containing:
{
  "matchScore": <number 0-100>,
  "matchLevel": "<poor|fair|good|excellent>",
  "overallFeedback": "<2-3 sentence summary of the match and key improvements needed>",
  "keywordsMatched": ["<keywords from job that are already in resume>"],
  "keywordsMissing": ["<important keywords from job missing from resume>"],
  "suggestions": [
    {
      "id": "<unique id>",
      "type": "<summary|experience|skills|education>",
      "original": "<exact text from resume to change>",
      "suggested": "<improved version tailored to job>",
      "explanation": "<why this change helps, 1-2 sentences>",
      "keywords": ["<keywords this change adds>"]
    }
  ]
}

Guidelines:
1. Focus on matching job keywords naturally, not stuffing them
2. Highlight relevant achievements and metrics
3. Mirror the job's tone (formal, startup-casual, etc.)
4. Ensure suggestions sound authentic, not AI-generated
5. Provide 4-8 specific, actionable suggestions
6. Include at least one suggestion for each section present in the resume`, job, resume)

	return prompt
}

// buildCoverLetterPrompt asks for a short letter grounded in the tailored résumé.
func buildCoverLetterPrompt(job, tailoredResume string) (prompt string) {
	prompt = fmt.Sprintf(`You are writing a concise, authentic cover letter or application email.
Use the job description and the tailored resume to create a letter in 200-280 words.
Keep the tone professional but warm, and include 3-4 bullet highlights if relevant.

JOB DESCRIPTION:
%s

TAILORED RESUME:
%s

Return the final cover letter text ready to copy-paste.`, job, tailoredResume)

	return prompt
}

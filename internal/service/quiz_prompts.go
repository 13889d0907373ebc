package service

import (
	"fmt"
	"strconv"
	"strings"

	"career-guide/internal/domain"
)

// formatQAHistory renderiza el historial como lineas numeradas desde 1.
func formatQAHistory(history []domain.QAEntry) string {
	if len(history) == 0 {
		return "(no answers yet)"
	}
	var sb strings.Builder
	for i, entry := range history {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. Trait=%s | Q='%s' | Rating=%s", i+1, entry.Trait, entry.Question, entry.Answer())
	}
	return sb.String()
}

// formatScores serializa los puntajes como objeto JSON en orden RIASEC.
func formatScores(scores domain.TraitScores) string {
	parts := make([]string, 0, len(domain.AllTraits))
	for _, t := range domain.AllTraits {
		v, ok := scores[t]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%q: %s", string(t), strconv.FormatFloat(v, 'f', -1, 64)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func buildMCQPrompt(history []domain.QAEntry, n int) string {
	return fmt.Sprintf(`You are an expert in psychometric assessments.
Generate EXACTLY %d MCQs to refine career prediction.

RULES:
- 4 options: A, B, C, D
- JSON ONLY in format:

{
  "questions": [
    {
      "question": "text",
      "options": {
        "A": "text",
        "B": "text",
        "C": "text",
        "D": "text"
      }
    }
  ]
}

User Q&A history:
%s

Return ONLY JSON.
`, n, formatQAHistory(history))
}

const recommendationInstructions = `You are an expert career counselor.

Based on the user's answers below, recommend 2-3 career options.

IMPORTANT OUTPUT RULES:
- Return ONLY valid JSON
- NO markdown
- NO explanations outside JSON
- Follow the exact schema below

OUTPUT SCHEMA:
{
  "recommendations": [
    {
      "career": "<career name>",
      "reason": "<short reason (1-2 sentences) tied to the user's RIASEC strengths>",
      "stream": "<science | commerce | arts>",
      "degrees": [
        {
          "degree": "<general degree name>",
          "specializations": ["<specialization 1>", "<specialization 2>", "<specialization 3>"]
        }
      ]
    }
  ]
}

DEGREE STRUCTURE RULES:
- Each career MUST include 2-3 general degree options
- Each degree MUST include 2-4 realistic general specializations
- Degrees and specializations must be real and commonly offered in India

EXAMPLE (DO NOT COPY, ONLY FOLLOW STRUCTURE):

{
  "career": "Software Developer",
  "reason": "Strong Investigative and Realistic traits indicate logical thinking and a preference for problem-solving tasks.",
  "stream": "science",
  "degrees": [
    {
      "degree": "B.Tech",
      "specializations": ["Computer Science", "Information Technology", "Artificial Intelligence & Machine Learning"]
    },
    {
      "degree": "B.Sc",
      "specializations": ["Computer Science", "Data Science", "Information Technology"]
    },
    {
      "degree": "BCA",
      "specializations": ["Software Development", "Mobile Application Development", "Cloud Computing"]
    }
  ]
}

Now analyze the user data below and generate recommendations using the same structure.
`

func buildRecommendationPrompt(history []domain.QAEntry, scores domain.TraitScores) string {
	var sb strings.Builder
	sb.WriteString(recommendationInstructions)
	sb.WriteString("\nUser Q&A (ordered):\n")
	sb.WriteString(formatQAHistory(history))
	sb.WriteString("\n\nFinal normalized RIASEC scores (each between 0 and 1):\n")
	sb.WriteString(formatScores(scores))
	sb.WriteString("\n\nGenerate 2-3 career recommendations that best match the user's profile.\n")
	return sb.String()
}

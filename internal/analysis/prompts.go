package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashureev/productlens/internal/domain"
)

const sentimentSystem = `You are a sentiment analysis expert. Analyze the sentiment of the product description and provide insights.
Respond with JSON in this format:
{
  "rating": number (1-5 stars),
  "confidence": number (0-1),
  "insights": ["insight1", "insight2"]
}`

const marketResearchSystem = `You are a market research expert with access to current market trends. Analyze the given product idea and provide comprehensive market research.
Consider the current market trends provided to give accurate insights.
Return your analysis in JSON format with the following structure:
{
  "marketSize": "string (e.g., '$4.2B')",
  "growthRate": "string (e.g., '13.2%')",
  "competitorCount": number,
  "keyInsights": ["insight1", "insight2", "insight3"],
  "competitors": [
    {
      "name": "string",
      "type": "direct" or "indirect",
      "description": "string",
      "strength": "string",
      "weakness": "string"
    }
  ]
}`

const problemsSystem = `You are a product strategy expert. Analyze the given product description and identify key problems and their solutions.
Return your analysis in JSON format:
{
  "problems": [
    {
      "problem": "Brief problem title",
      "description": "Detailed problem description",
      "solutions": ["solution1", "solution2", "solution3"]
    }
  ]
}`

const competitiveSystem = `You are a competitive intelligence expert. Provide SWOT analysis and competitive positioning for the product.
Return analysis in JSON format:
{
  "swotAnalysis": {
    "strengths": ["strength1", "strength2"],
    "weaknesses": ["weakness1", "weakness2"],
    "opportunities": ["opportunity1", "opportunity2"],
    "threats": ["threat1", "threat2"]
  },
  "marketPosition": "Description of market position",
  "differentiationStrategy": ["strategy1", "strategy2"]
}`

const riskSystem = `You are a risk assessment expert. Analyze potential risks for the product idea.
Return analysis in JSON format:
{
  "risks": [
    {
      "type": "Technical/Market/Financial/Legal/etc",
      "description": "Risk description",
      "probability": "low" | "medium" | "high",
      "impact": "low" | "medium" | "high",
      "mitigation": "Mitigation strategy"
    }
  ],
  "overallRiskLevel": "low" | "medium" | "high"
}`

const techStackSystem = `You are a technical architect. Recommend a comprehensive tech stack for the given product.
Return recommendations in JSON format:
{
  "recommendations": [
    {
      "category": "Frontend Mobile/Backend/Database/etc",
      "primary": "Primary recommendation",
      "alternatives": ["alternative1", "alternative2"],
      "reasoning": "Why this is recommended"
    }
  ]
}`

const prdSystem = `You are an expert product manager. Create a comprehensive Product Requirements Document (PRD).
Return the PRD in JSON format:
{
  "sections": [
    {
      "title": "Section title",
      "content": "Detailed content in markdown format"
    }
  ]
}`

const wireframeSystem = `You are a UX/UI expert with knowledge of current design trends and best practices. Provide wireframe and MVP guidance for the given product.
Consider modern UI/UX patterns, accessibility requirements, and mobile-first design.
Return guidance in JSON format:
{
  "screens": [
    {
      "name": "Screen name",
      "description": "What this screen does",
      "priority": "critical" | "high" | "medium" | "low"
    }
  ],
  "designConsiderations": ["consideration1", "consideration2"],
  "nextSteps": ["step1", "step2", "step3"]
}`

func productHeader(productInput, industry string) string {
	return fmt.Sprintf("Product: %s\nIndustry: %s\n\n", productInput, industry)
}

func marketResearchUser(productInput, industry string, trends []string) string {
	return productHeader(productInput, industry) +
		"Current Market Trends: " + strings.Join(trends, ", ") + "\n\n" +
		"Provide detailed market research for this product idea, incorporating current market trends and realistic market data."
}

func problemsUser(productInput string) string {
	return fmt.Sprintf("Product: %s\n\n", productInput) +
		"Identify the main problems this product solves and recommend specific solutions for each."
}

func competitiveUser(productInput, industry string) string {
	return productHeader(productInput, industry) +
		"Provide competitive intelligence including SWOT analysis, market positioning, and differentiation strategies."
}

func riskUser(productInput, industry string) string {
	return productHeader(productInput, industry) +
		"Provide comprehensive risk assessment including technical, market, financial, and regulatory risks."
}

func techStackUser(productInput, industry string) string {
	return productHeader(productInput, industry) +
		"Recommend a complete tech stack for building this product, including frontend, backend, database, third-party services, and infrastructure."
}

func prdUser(productInput, industry string, mr *domain.MarketResearch) (string, error) {
	data, err := json.Marshal(mr)
	if err != nil {
		return "", fmt.Errorf("encode market research: %w", err)
	}
	return fmt.Sprintf("Product: %s\nIndustry: %s\nMarket Research: %s\n\n", productInput, industry, data) +
		"Create a comprehensive PRD with sections for: Product Overview, Target Users, Key Features (MVP/Phase 2/Future), Success Metrics, Technical Requirements, and Go-to-Market Strategy.", nil
}

func wireframeUser(productInput, industry string) string {
	return productHeader(productInput, industry) +
		"Provide wireframe guidance including priority screens for MVP, key design considerations focusing on user experience, accessibility, and modern design patterns, and detailed next steps for development."
}

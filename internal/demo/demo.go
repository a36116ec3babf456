// Package demo provides the canned analysis returned when no completion
// backend is available or a live analysis fails. The content describes a
// co-working space booking app and does not depend on the product input.
// Every call returns freshly allocated values.
package demo

import "github.com/ashureev/productlens/internal/domain"

// Sentiment returns the demo tone analysis.
func Sentiment() *domain.Sentiment {
	return &domain.Sentiment{
		Rating:     4,
		Confidence: 0.85,
		Insights: []string{
			"Product description shows strong understanding of market pain points",
			"Clear value proposition with focus on real-time solutions",
			"Positive language indicating confidence in the business model",
			"Well-articulated problem statements suggest thorough market research",
		},
	}
}

// MarketResearch returns the demo market sizing.
func MarketResearch() *domain.MarketResearch {
	return &domain.MarketResearch{
		MarketSize:      "$4.2B",
		GrowthRate:      "13.2%",
		CompetitorCount: 8,
		KeyInsights: []string{
			"Growing demand for digital solutions in the workspace management sector",
			"Remote work trends driving innovation in flexible workspace solutions",
			"Mobile-first approach becoming increasingly important for user adoption",
			"Integration with existing business tools is a key differentiator",
		},
		Competitors: []domain.Competitor{
			{
				Name:        "WeWork App",
				Type:        domain.CompetitorDirect,
				Description: "Global flexible workspace provider with mobile booking platform",
				Strength:    "Brand recognition and global presence",
				Weakness:    "Limited real-time availability features",
			},
			{
				Name:        "Liquidspace",
				Type:        domain.CompetitorDirect,
				Description: "On-demand workspace booking platform",
				Strength:    "Established marketplace with verified spaces",
				Weakness:    "User experience could be more intuitive",
			},
			{
				Name:        "Breather",
				Type:        domain.CompetitorDirect,
				Description: "Private workspace rental service",
				Strength:    "Quality control and premium spaces",
				Weakness:    "Higher price point and limited locations",
			},
		},
	}
}

// Problems returns the demo problem analysis.
func Problems() []domain.ProblemSolution {
	return []domain.ProblemSolution{
		{
			Problem:     "Real-time Space Availability",
			Description: "Users struggle to find available co-working spaces in real-time, leading to wasted time and frustration",
			Solutions: []string{
				"Implement live booking system with real-time availability updates",
				"Partner with spaces to provide API access for instant booking confirmation",
				"Add notification system for space availability alerts",
			},
		},
		{
			Problem:     "Pricing Transparency",
			Description: "Hidden fees and unclear pricing structures make it difficult for users to budget and compare options",
			Solutions: []string{
				"Display all-inclusive pricing with no hidden fees",
				"Provide detailed breakdown of costs including taxes and services",
				"Implement price comparison tools and filters",
			},
		},
		{
			Problem:     "Quality Verification",
			Description: "Users have no way to verify workspace quality before booking, leading to disappointing experiences",
			Solutions: []string{
				"Implement verified photo system with recent updates",
				"Add user review and rating system with photo uploads",
				"Provide detailed amenity lists and space specifications",
			},
		},
	}
}

// Competitive returns the demo SWOT analysis.
func Competitive() *domain.CompetitiveIntelligence {
	return &domain.CompetitiveIntelligence{
		SWOTAnalysis: domain.SWOT{
			Strengths: []string{
				"Real-time availability tracking as a key differentiator",
				"Mobile-first approach aligning with user behavior trends",
				"Transparent pricing model building user trust",
				"Focus on quality verification addressing market gap",
			},
			Weaknesses: []string{
				"New brand without established market presence",
				"Dependency on space partner integration for real-time data",
				"Initial limited inventory compared to established competitors",
				"Need for significant marketing investment to build user base",
			},
			Opportunities: []string{
				"Growing remote work trend increasing target market size",
				"Potential for enterprise partnerships and B2B expansion",
				"International expansion to underserved markets",
				"Integration opportunities with productivity and travel apps",
			},
			Threats: []string{
				"Established competitors with significant funding and market share",
				"Economic downturn potentially reducing flexible workspace demand",
				"Direct competition from space providers launching their own apps",
				"Regulatory changes affecting short-term workspace rentals",
			},
		},
		MarketPosition: "Positioned as a premium, technology-focused solution targeting quality-conscious remote workers willing to pay for verified, transparent workspace access.",
		DifferentiationStrategy: []string{
			"Lead with real-time availability as core value proposition",
			"Emphasize pricing transparency and no hidden fees policy",
			"Build strong quality verification and review system",
			"Focus on superior mobile user experience and design",
			"Develop partnerships with productivity tools and corporate clients",
		},
	}
}

// Risk returns the demo risk assessment.
func Risk() *domain.RiskAssessment {
	return &domain.RiskAssessment{
		Risks: []domain.Risk{
			{
				Type:        "Technical",
				Description: "Real-time data synchronization complexity may lead to booking conflicts or system outages",
				Probability: domain.LevelMedium,
				Impact:      domain.LevelHigh,
				Mitigation:  "Implement redundant systems, extensive testing, and fallback booking processes",
			},
			{
				Type:        "Market",
				Description: "Established competitors may respond aggressively with price cuts or feature matching",
				Probability: domain.LevelHigh,
				Impact:      domain.LevelMedium,
				Mitigation:  "Focus on unique value propositions and build strong customer loyalty through superior service",
			},
			{
				Type:        "Financial",
				Description: "High customer acquisition costs in competitive market may strain runway",
				Probability: domain.LevelMedium,
				Impact:      domain.LevelHigh,
				Mitigation:  "Optimize marketing channels, focus on organic growth, and consider partnership strategies",
			},
			{
				Type:        "Operational",
				Description: "Dependency on space partner cooperation for data integration and quality standards",
				Probability: domain.LevelMedium,
				Impact:      domain.LevelMedium,
				Mitigation:  "Develop strong partner relationships, create mutual value propositions, and maintain backup inventory",
			},
		},
		OverallRiskLevel: domain.LevelMedium,
	}
}

// TechStack returns the demo technology recommendations.
func TechStack() []domain.TechRecommendation {
	return []domain.TechRecommendation{
		{
			Category:     "Frontend Mobile",
			Primary:      "React Native",
			Alternatives: []string{"Flutter", "Native iOS/Android"},
			Reasoning:    "Cross-platform development efficiency with native performance and extensive library ecosystem",
		},
		{
			Category:     "Backend API",
			Primary:      "Node.js with Express",
			Alternatives: []string{"Python Django", "Go Gin"},
			Reasoning:    "JavaScript ecosystem consistency, excellent real-time capabilities, and rapid development",
		},
		{
			Category:     "Database",
			Primary:      "PostgreSQL",
			Alternatives: []string{"MongoDB", "MySQL"},
			Reasoning:    "ACID compliance for booking transactions, spatial data support for location features",
		},
		{
			Category:     "Real-time Features",
			Primary:      "Socket.io",
			Alternatives: []string{"WebRTC", "Server-Sent Events"},
			Reasoning:    "Bi-directional real-time communication for live availability updates and notifications",
		},
		{
			Category:     "Payment Processing",
			Primary:      "Stripe",
			Alternatives: []string{"PayPal", "Square"},
			Reasoning:    "Comprehensive payment features, strong security, and excellent developer experience",
		},
		{
			Category:     "Maps & Location",
			Primary:      "Google Maps API",
			Alternatives: []string{"Mapbox", "Apple Maps"},
			Reasoning:    "Comprehensive location data, reliable geocoding, and familiar user experience",
		},
	}
}

// PRD returns the demo requirements document. The market research it is
// generated from does not change the canned sections.
func PRD(_ *domain.MarketResearch) []domain.PRDSection {
	return []domain.PRDSection{
		{
			Title:   "Product Overview",
			Content: "A mobile-first platform that connects remote workers with available co-working spaces in real-time. The app addresses key pain points in the flexible workspace market by providing transparent pricing, verified quality information, and instant booking capabilities.",
		},
		{
			Title:   "Target Users",
			Content: "Primary: Remote workers, freelancers, and digital nomads seeking flexible workspace solutions\nSecondary: Business travelers and teams needing temporary office space\nTertiary: Co-working space owners looking to maximize occupancy",
		},
		{
			Title:   "Core Features (MVP)",
			Content: "• Real-time space discovery with live availability\n• Transparent pricing with no hidden fees\n• Instant booking and payment processing\n• User reviews and photo verification\n• Location-based search with map integration\n• User profile and booking history",
		},
		{
			Title:   "Phase 2 Features",
			Content: "• Team booking for multiple users\n• Recurring booking options\n• Integration with calendar apps\n• Loyalty program and rewards\n• Advanced filtering (amenities, capacity, etc.)\n• Host dashboard for space owners",
		},
		{
			Title:   "Success Metrics",
			Content: "• User acquisition: 10,000 monthly active users within 6 months\n• Booking conversion rate: >15% from search to booking\n• User retention: >40% monthly retention rate\n• Revenue: $100K ARR within first year\n• Customer satisfaction: >4.2/5 average rating",
		},
		{
			Title:   "Technical Requirements",
			Content: "• Mobile-responsive web app and native mobile apps\n• Sub-3 second page load times\n• 99.9% uptime for booking system\n• Real-time data synchronization\n• Secure payment processing (PCI compliance)\n• Scalable architecture for 100K+ users",
		},
	}
}

// Wireframe returns the demo UX guidance.
func Wireframe() *domain.Wireframe {
	return &domain.Wireframe{
		Screens: []domain.WireframeScreen{
			{Name: "Onboarding & Sign Up", Description: "Simple 3-step onboarding with location permission and profile setup", Priority: domain.PriorityCritical},
			{Name: "Home/Discovery Screen", Description: "Map view with nearby spaces, search bar, and filter options", Priority: domain.PriorityCritical},
			{Name: "Space Details", Description: "Detailed space information, photos, amenities, pricing, and booking button", Priority: domain.PriorityCritical},
			{Name: "Booking Flow", Description: "Date/time selection, payment processing, and confirmation", Priority: domain.PriorityCritical},
			{Name: "User Profile", Description: "Account settings, booking history, and preferences", Priority: domain.PriorityHigh},
			{Name: "Reviews & Ratings", Description: "Post-visit review submission with photos and ratings", Priority: domain.PriorityHigh},
			{Name: "Notifications", Description: "Booking reminders, availability alerts, and promotional messages", Priority: domain.PriorityMedium},
		},
		DesignConsiderations: []string{
			"Mobile-first design with thumb-friendly navigation and touch targets",
			"Clear visual hierarchy emphasizing availability and pricing information",
			"Consistent color coding for different space types and availability status",
			"Accessibility compliance with proper contrast ratios and screen reader support",
			"Offline functionality for viewing previously loaded content and bookings",
		},
		NextSteps: []string{
			"Create detailed wireframes for each critical screen",
			"Design user flow diagrams for booking and discovery processes",
			"Develop a comprehensive design system and component library",
			"Conduct user testing sessions with target demographic",
			"Build interactive prototype for stakeholder feedback",
			"Plan technical architecture and development roadmap",
		},
	}
}

// FullBundle returns every demo section for the given product. Market
// research is built once and fed to the PRD.
func FullBundle(productInput, industry string) *domain.AnalysisResult {
	mr := MarketResearch()
	return &domain.AnalysisResult{
		Sentiment:               Sentiment(),
		MarketResearch:          mr,
		ProblemAnalysis:         Problems(),
		CompetitiveIntelligence: Competitive(),
		RiskAssessment:          Risk(),
		TechStack:               TechStack(),
		PRD:                     PRD(mr),
		Wireframe:               Wireframe(),
	}
}

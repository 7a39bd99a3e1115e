package strategy

import (
	"strings"

	"github.com/brettboylen/creator-tracker/models"
)

// PlatformLabel returns the display name of a platform
func PlatformLabel(platform models.Platform) string {
	switch platform {
	case models.PlatformTikTok:
		return "TikTok"
	case models.PlatformInstagram:
		return "Instagram"
	case models.PlatformYouTube:
		return "YouTube"
	case models.PlatformTwitter:
		return "X / Twitter"
	case models.PlatformNewsletter:
		return "Newsletter"
	default:
		return string(platform)
	}
}

// HumanizePillar returns the phrase used for a pillar in narrative text
func HumanizePillar(pillar models.ContentPillar) string {
	switch pillar {
	case models.PillarDigitalNomad:
		return "digital nomad life"
	case models.PillarHipHop:
		return "hip-hop"
	case models.PillarRevOpsAI:
		return "RevOps + AI"
	case models.PillarMentalHealth:
		return "mental health and resilience"
	case models.PillarMusic:
		return "music"
	default:
		return strings.Replace(string(pillar), "_", " ", 1)
	}
}

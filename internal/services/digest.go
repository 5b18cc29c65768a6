package services

import (
	"fmt"
	"html"
	"strings"

	"alize_backend/internal/models"
)

// digestJob carries the few listing fields the email needs.
type digestJob struct {
	Title    string
	Company  string
	Location string
	URL      string
	Score    int
}

var frequencyLabels = map[string]string{
	models.FrequencyDaily:      "Tous les jours",
	models.FrequencyWeekly:     "Toutes les semaines",
	models.FrequencyEvery3Days: "Tous les 3 jours",
}

func frequencyLabel(frequency string) string {
	if label, ok := frequencyLabels[frequency]; ok {
		return label
	}
	return frequencyLabels[models.FrequencyEvery3Days]
}

// scoreBadgeColors returns background and text color for the 0..10
// score badge: green from 7, orange from 5, gray below.
func scoreBadgeColors(score int) (bg, fg string) {
	switch {
	case score >= 7:
		return "#ECFDF3", "#16A34A"
	case score >= 5:
		return "#FFF7ED", "#EA580C"
	default:
		return "#F3F4F6", "#6B7280"
	}
}

func digestSubject(count int) string {
	if count > 1 {
		return fmt.Sprintf("🎯 Vos %d meilleures offres Alizé", count)
	}
	return "🎯 Votre meilleure offre Alizé"
}

// buildDigestBody renders the plain-text and HTML digest. Jobs arrive
// already sorted by score.
func buildDigestBody(jobs []digestJob, frequency, frontendURL, unsubscribeURL string) (string, string) {
	header := "VOTRE MEILLEURE OFFRE"
	if len(jobs) > 1 {
		header = fmt.Sprintf("VOS %d MEILLEURES OFFRES", len(jobs))
	}

	var text strings.Builder
	text.WriteString("Bonjour,\n\n")
	text.WriteString(header + "\nBasées sur votre profil et vos préférences\n\n")
	for _, j := range jobs {
		fmt.Fprintf(&text, "- %s @ %s (%s) [%s] score %d\n", j.Title, j.Company, orNA(j.Location), j.URL, j.Score)
	}
	fmt.Fprintf(&text, "\nVoir toutes mes offres: %s/dashboard\n", frontendURL)
	if unsubscribeURL != "" {
		fmt.Fprintf(&text, "\nSe désinscrire des notifications: %s\n", unsubscribeURL)
	}
	text.WriteString("\n---\nAlizé - Votre assistant emploi intelligent\n")

	var cards strings.Builder
	for _, j := range jobs {
		bg, fg := scoreBadgeColors(j.Score)
		fmt.Fprintf(&cards, `
      <tr><td style="padding:6px 0;">
        <a href="%s" style="text-decoration:none;color:inherit;display:block;">
          <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="background:#FFFFFF;border:1px solid #E5E7EB;border-radius:12px;">
            <tr><td style="padding:16px 18px;">
              <table width="100%%" cellpadding="0" cellspacing="0" border="0"><tr>
                <td style="vertical-align:top;">
                  <div style="font-family:Inter,Arial,sans-serif;font-weight:600;font-size:15px;color:#111827;line-height:1.4;">%s</div>
                  <div style="font-family:Inter,Arial,sans-serif;font-size:13px;color:#6B7280;margin-top:4px;">%s • %s</div>
                </td>
                <td width="60" style="vertical-align:top;text-align:right;">
                  <div style="background:%s;color:%s;font-family:Inter,Arial,sans-serif;font-weight:700;font-size:13px;padding:6px 10px;border-radius:8px;display:inline-block;">%d/10</div>
                </td>
              </tr><tr>
                <td colspan="2" style="padding-top:10px;">
                  <span style="font-family:Inter,Arial,sans-serif;font-size:13px;color:#0EA5E9;font-weight:500;">Voir l'offre →</span>
                </td>
              </tr></table>
            </td></tr>
          </table>
        </a>
      </td></tr>`,
			html.EscapeString(j.URL), html.EscapeString(j.Title),
			html.EscapeString(j.Company), html.EscapeString(orNA(j.Location)),
			bg, fg, j.Score)
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Vos offres Alizé</title></head>
<body style="margin:0;padding:0;background-color:#F3F4F6;">
  <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="background-color:#F3F4F6;">
    <tr><td align="center" style="padding:32px 16px;">
      <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;background:#FFFFFF;border-radius:20px;box-shadow:0 4px 24px rgba(0,0,0,0.06);">
        <tr><td style="padding:28px 32px 20px 32px;border-bottom:1px solid #E5E7EB;">
          <div style="font-family:Inter,Arial,sans-serif;font-size:24px;font-weight:700;color:#0EA5E9;">🌬️ ALIZÉ</div>
        </td></tr>
        <tr><td style="padding:28px 32px 0 32px;">
          <div style="font-family:Inter,Arial,sans-serif;font-size:18px;color:#111827;">👋 Bonjour,</div>
        </td></tr>
        <tr><td style="padding:20px 32px;">
          <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="background:linear-gradient(135deg, #EFF6FF 0%%, #DBEAFE 100%%);border-radius:12px;">
            <tr><td style="padding:18px 20px;text-align:center;">
              <div style="font-family:Inter,Arial,sans-serif;font-size:16px;font-weight:700;color:#1E40AF;">🎯 %s</div>
              <div style="font-family:Inter,Arial,sans-serif;font-size:13px;color:#3B82F6;margin-top:4px;">Basées sur votre profil et vos préférences</div>
            </td></tr>
          </table>
        </td></tr>
        <tr><td style="padding:0 32px;">
          <table width="100%%" cellpadding="0" cellspacing="0" border="0">%s</table>
        </td></tr>
        <tr><td style="padding:24px 32px;" align="center">
          <a href="%s/dashboard" style="display:inline-block;background:linear-gradient(135deg, #0EA5E9 0%%, #0284C7 100%%);color:#FFFFFF;font-family:Inter,Arial,sans-serif;font-size:15px;font-weight:600;padding:14px 32px;border-radius:10px;text-decoration:none;">📊 VOIR TOUTES MES OFFRES</a>
        </td></tr>
        %s
        <tr><td style="padding:24px 32px;border-top:1px solid #E5E7EB;" align="center">
          <div style="font-family:Inter,Arial,sans-serif;font-size:13px;color:#6B7280;line-height:1.6;">Alizé - Votre assistant emploi intelligent</div>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`,
		html.EscapeString(header), cards.String(),
		html.EscapeString(frontendURL),
		unsubscribeSection(frequency, unsubscribeURL))

	return text.String(), body
}

// buildEmptyDigestBody renders the "no new jobs" message sent when the
// selection is empty and the user opted in to empty digests.
func buildEmptyDigestBody(frequency, frontendURL, unsubscribeURL string) (string, string) {
	var text strings.Builder
	text.WriteString("Bonjour,\n\nAucune nouvelle offre pour le moment.\n")
	text.WriteString("Nous continuons à surveiller les offres selon vos critères.\n\n")
	fmt.Fprintf(&text, "Voir mes offres: %s/dashboard\n", frontendURL)
	if unsubscribeURL != "" {
		fmt.Fprintf(&text, "\nSe désinscrire: %s\n", unsubscribeURL)
	}
	text.WriteString("\n---\nAlizé - Votre assistant emploi intelligent\n")

	body := fmt.Sprintf(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Alizé - Mise à jour</title></head>
<body style="margin:0;padding:0;background-color:#F3F4F6;">
  <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="background-color:#F3F4F6;">
    <tr><td align="center" style="padding:32px 16px;">
      <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;background:#FFFFFF;border-radius:20px;box-shadow:0 4px 24px rgba(0,0,0,0.06);">
        <tr><td style="padding:28px 32px 20px 32px;border-bottom:1px solid #E5E7EB;">
          <div style="font-family:Inter,Arial,sans-serif;font-size:24px;font-weight:700;color:#0EA5E9;">🌬️ ALIZÉ</div>
        </td></tr>
        <tr><td style="padding:28px 32px 0 32px;">
          <div style="font-family:Inter,Arial,sans-serif;font-size:18px;color:#111827;">👋 Bonjour,</div>
        </td></tr>
        <tr><td style="padding:24px 32px;text-align:center;">
          <div style="font-size:48px;margin-bottom:16px;">🔍</div>
          <div style="font-family:Inter,Arial,sans-serif;font-weight:700;font-size:18px;color:#111827;margin-bottom:12px;">Aucune nouvelle offre trouvée</div>
          <div style="font-family:Inter,Arial,sans-serif;font-size:14px;color:#6B7280;line-height:1.6;max-width:380px;margin:0 auto;">Nous continuons à surveiller les offres selon vos critères. Vous recevrez un email dès que de nouvelles opportunités seront disponibles.</div>
        </td></tr>
        <tr><td style="padding:0 32px 24px 32px;" align="center">
          <a href="%s/preferences" style="display:inline-block;background:linear-gradient(135deg, #0EA5E9 0%%, #0284C7 100%%);color:#FFFFFF;font-family:Inter,Arial,sans-serif;font-size:15px;font-weight:600;padding:14px 32px;border-radius:10px;text-decoration:none;">⚙️ Modifier mes préférences</a>
        </td></tr>
        %s
        <tr><td style="padding:24px 32px;border-top:1px solid #E5E7EB;" align="center">
          <div style="font-family:Inter,Arial,sans-serif;font-size:13px;color:#6B7280;line-height:1.6;">Alizé - Votre assistant emploi intelligent</div>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`,
		html.EscapeString(frontendURL),
		unsubscribeSection(frequency, unsubscribeURL))

	return text.String(), body
}

func unsubscribeSection(frequency, unsubscribeURL string) string {
	if unsubscribeURL == "" {
		return ""
	}
	return fmt.Sprintf(`
        <tr><td style="padding:24px 32px 0 32px;">
          <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="border-top:1px solid #E5E7EB;">
            <tr><td style="padding-top:20px;text-align:center;">
              <div style="font-family:Inter,Arial,sans-serif;font-size:13px;color:#6B7280;margin-bottom:12px;">📧 Fréquence actuelle : <strong>%s</strong></div>
              <a href="%s" style="display:inline-block;background:#FEE2E2;color:#DC2626;font-family:Inter,Arial,sans-serif;font-size:13px;font-weight:500;padding:10px 20px;border-radius:8px;text-decoration:none;">🔕 Désactiver les notifications par email</a>
            </td></tr>
          </table>
        </td></tr>`,
		html.EscapeString(frequencyLabel(frequency)), html.EscapeString(unsubscribeURL))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

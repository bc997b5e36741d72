package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Mailer delivers a composed message to a list of recipients. Implementations
// live outside the service layer; failures are reported, never fatal to the
// operation that triggered the send.
type Mailer interface {
	Send(subject, body string, recipients []string) error
}

// inviteEmailPattern is the RFC-lite check used when partitioning invite lists.
var inviteEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// respondentEmailPattern validates the respondent address on submission.
var respondentEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidRespondentEmail reports whether email is acceptable for a respondent.
func ValidRespondentEmail(email string) bool {
	return respondentEmailPattern.MatchString(email)
}

// PartitionEmails splits a recipient list into syntactically valid and invalid
// addresses. Entries are trimmed; blank entries are dropped entirely.
func PartitionEmails(emails []string) (valid, invalid []string) {
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		if inviteEmailPattern.MatchString(email) {
			valid = append(valid, email)
		} else {
			invalid = append(invalid, email)
		}
	}
	return valid, invalid
}

const emailTimeLayout = "January 2, 2006 at 3:04 PM"

// ComposeInviteEmail builds the invitation message for a survey.
func ComposeInviteEmail(sv *Survey, surveyURL, customMessage, senderName, senderTeam string) (subject, body string) {
	subject = fmt.Sprintf("You're invited to participate in: %s", sv.Title)
	if senderName == "" {
		senderName = "Survey Team"
	}
	body = fmt.Sprintf(`Hello,

You are invited to collaborate in a survey: %q

%s

%s

Please click the link below to participate:
%s

Thank you for your participation!

Best regards,
%s
%s
`, sv.Title, sv.Description, customMessage, surveyURL, senderName, senderTeam)
	return subject, body
}

// ComposeConfirmationEmail builds the submission confirmation message sent to
// a respondent, including the link to review the submitted answers.
func ComposeConfirmationEmail(fullName, surveyTitle, responseID, viewURL string, submittedAt time.Time) (subject, body string) {
	subject = fmt.Sprintf("Thank you for completing: %s", surveyTitle)
	when := submittedAt.Format(emailTimeLayout)
	body = fmt.Sprintf(`Hello %s,

Thank you for completing the survey: %q

Your responses have been successfully submitted on %s.

You can view your submitted responses at any time by clicking the link below:
%s

Response ID: %s
Survey: %s
Submitted: %s

If you have any questions about this survey, please contact the survey administrator.

Best regards,
Survey Team
`, fullName, surveyTitle, when, viewURL, responseID, surveyTitle, when)
	return subject, body
}

package echoapi

const (
	categorySuccess = "success"
	categoryWarning = "warning"
	categoryDanger  = "danger"

	msgContactSent        = "Message sent successfully! We will get back to you soon."
	msgParentRegistered   = "Thank you for registering! We’ll be in touch soon."
	msgAlumnusRegistered  = "Thank you for joining the alumni network!"
	msgAdmissionSubmitted = "Application submitted successfully! Please check your email for payment instructions."
	msgAdmissionNotMailed = "Application saved, but failed to send email. Please contact the school to confirm your payment details."
	msgFeedbackSubmitted  = "Feedback submitted for moderation. Thank you for your input!"
	msgVolunteerSignedUp  = "Thank you for signing up to volunteer! We’ll be in touch soon."
	msgVisitRequested     = "Your visit application has been submitted successfully! A confirmation email has been sent to your inbox."
	msgSubscribed         = "Thank you for subscribing! A confirmation email has been sent."
	msgAlreadySubscribed  = "This email is already subscribed"
	msgSavedNotMailed     = "Your submission was saved, but we could not send the notification email."
	msgStatusUpdated      = "Status updated successfully."
	msgStatusNotMailed    = "Status updated, but failed to notify the parent."
	msgFillAllFields      = "Please fill out all fields."
	msgLoginFailed        = "Invalid username or password."
	msgAccountDeactivated = "This account has been deactivated."
	msgNotFound           = "Not found."
	msgServerError        = "An error occurred while processing your request. Please try again later."
	msgStorageError       = "An error occurred while saving your submission. Please try again later."
	msgSendError          = "An error occurred while sending your request. Please try again later."
)

// Response is the body of every form submission, failed ones included.
type Response struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	Category     string            `json:"category"`
	Errors       map[string]string `json:"errors,omitempty"`
	TrackingCode string            `json:"tracking_code,omitempty"`
}

func success(msg string) Response {
	return Response{Success: true, Message: msg, Category: categorySuccess}
}

// warning is a success whose side effects (emails) did not all happen.
func warning(msg string) Response {
	return Response{Success: true, Message: msg, Category: categoryWarning}
}

func failure(msg, category string) Response {
	return Response{Success: false, Message: msg, Category: category}
}

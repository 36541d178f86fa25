package kafka

import "time"

// EventDueReminder asks the mailer to remind a reader about a book due soon.
type EventDueReminder struct {
	UserEmail string    `json:"userEmail"`
	BookTitle string    `json:"bookTitle"`
	DueDate   time.Time `json:"dueDate"`
	SentAt    time.Time `json:"sentAt"`
}

// EventFinePayment is published by the payment processor once a charge settles.
type EventFinePayment struct {
	FineUid       string `json:"fineUid"`
	UserID        string `json:"userId"`
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
}

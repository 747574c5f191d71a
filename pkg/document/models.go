package document

import "strconv"

// Document is the product document sent to the API.
type Document struct {
	Description    Description `json:"description"`
	DocID          string      `json:"docId"`
	DocStatus      string      `json:"docStatus"`
	DocType        string      `json:"docType"`
	ImportRequest  bool        `json:"importRequest"`
	OwnerInn       string      `json:"ownerInn"`
	ParticipantInn string      `json:"participantInn"`
	ProducerInn    string      `json:"producerInn"`
	ProductionDate string      `json:"productionDate"`
	ProductionType string      `json:"productionType"`
	Products       []Product   `json:"products"`
	RegDate        string      `json:"regDate"`
	RegNumber      string      `json:"regNumber"`
}

// Description identifies the participant submitting the document.
type Description struct {
	ParticipantInn string `json:"participantInn"`
}

// Product is one item listed in a Document.
type Product struct {
	CertificateDocument       string `json:"certificateDocument"`
	CertificateDocumentDate   string `json:"certificateDocumentDate"`
	CertificateDocumentNumber string `json:"certificateDocumentNumber"`
	OwnerInn                  string `json:"ownerInn"`
	ProducerInn               string `json:"producerInn"`
	ProductionDate            string `json:"productionDate"`
	TnvedCode                 string `json:"tnvedCode"`
	UitCode                   string `json:"uitCode"`
	UituCode                  string `json:"uituCode"`
}

// Request is the body posted to the create endpoint.
type Request struct {
	DocumentFormat  string   `json:"documentFormat"`
	ProductDocument Document `json:"productDocument"`
	Type            string   `json:"type"`
	Signature       string   `json:"signature"`
}

// response is the part of the create response the client reads.
type response struct {
	ProductDocument struct {
		DocID string `json:"docId"`
	} `json:"productDocument"`
}

// Sample builds a fixture document numbered n, as used by the demo driver.
func Sample(n int) Document {
	id := strconv.Itoa(n)
	return Document{
		Description:    Description{ParticipantInn: id},
		DocID:          id,
		DocStatus:      "approved",
		DocType:        "type",
		ImportRequest:  true,
		OwnerInn:       "ownerInn",
		ParticipantInn: "participantInn",
		ProducerInn:    "producerInn",
		ProductionDate: "2025-08-11",
		ProductionType: "type",
		Products: []Product{{
			CertificateDocument:       "cert" + id,
			CertificateDocumentDate:   "2025-08-11",
			CertificateDocumentNumber: "certDocNumber",
			OwnerInn:                  "owner",
			ProducerInn:               "producer",
			ProductionDate:            "2025-08-11",
			TnvedCode:                 "tnved1",
			UitCode:                   "uitCode",
			UituCode:                  "uituCode",
		}},
		RegDate:   "2025-08-11",
		RegNumber: "regType",
	}
}

// SampleSignature returns the placeholder signature for fixture n.
func SampleSignature(n int) string {
	return "<Sign " + strconv.Itoa(n) + ">"
}

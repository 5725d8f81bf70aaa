package resources

import (
	"context"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/jrsteele09/go-partner-portal/apiclient"
)

// Portal groups every collection the partner portal works with.
type Portal struct {
	Applicants  Collection[Applicant]
	Documents   Documents
	Payments    Collection[Payment]
	Commissions Collection[Commission]
	Tickets     Collection[Ticket]
	Partners    Collection[Partner]
	Reports     Reports
	Referrals   Collection[Referral]
	Workflows   Collection[Workflow]
}

func New(client *apiclient.Client) *Portal {
	return &Portal{
		Applicants:  NewCollection[Applicant](client, apiclient.EndpointApplicants),
		Documents:   Documents{Collection: NewCollection[Document](client, apiclient.EndpointDocuments)},
		Payments:    NewCollection[Payment](client, apiclient.EndpointPayments),
		Commissions: NewCollection[Commission](client, apiclient.EndpointCommissions),
		Tickets:     NewCollection[Ticket](client, apiclient.EndpointTickets),
		Partners:    NewCollection[Partner](client, apiclient.EndpointPartners),
		Reports:     Reports{Collection: NewCollection[Report](client, apiclient.EndpointReports)},
		Referrals:   NewCollection[Referral](client, apiclient.EndpointReferrals),
		Workflows:   NewCollection[Workflow](client, apiclient.EndpointWorkflows),
	}
}

// Documents adds file transfer to the documents collection.
type Documents struct {
	Collection[Document]
}

// Upload attaches a file to an applicant.
func (d Documents) Upload(ctx context.Context, applicantID int, name string, content io.Reader) (Document, error) {
	raw, err := d.client.Upload(ctx, d.Path, apiclient.Upload{
		Fields: map[string]string{"applicant": strconv.Itoa(applicantID)},
		Files: []apiclient.File{{
			Field:       "file",
			Name:        name,
			ContentType: mime.TypeByExtension(filepath.Ext(name)),
			Content:     content,
		}},
	})
	if err != nil {
		return Document{}, err
	}
	return apiclient.Decode[Document](raw)
}

// Download fetches the document's content.
func (d Documents) Download(ctx context.Context, id int) (apiclient.Download, error) {
	return d.client.Download(ctx, d.item(id)+"download/")
}

// Reports adds exports to the reports collection.
type Reports struct {
	Collection[Report]
}

// Export renders the named report, e.g. "applicants" or "commissions".
func (r Reports) Export(ctx context.Context, name string, query url.Values) (apiclient.Download, error) {
	endpoint := r.Path + url.PathEscape(name) + "/export/"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return r.client.Download(ctx, endpoint)
}

package apiclient

// Backend endpoint paths
const (
	// Auth
	EndpointLogin        = "/api/auth/login/"
	EndpointRegister     = "/api/auth/register/"
	EndpointTokenRefresh = "/api/auth/token/refresh/"
	EndpointMe           = "/api/auth/me/"

	// Resources
	EndpointApplicants  = "/api/applicants/"
	EndpointDocuments   = "/api/documents/"
	EndpointPayments    = "/api/payments/"
	EndpointCommissions = "/api/commissions/"
	EndpointTickets     = "/api/tickets/"
	EndpointPartners    = "/api/partners/"
	EndpointReports     = "/api/reports/"
	EndpointReferrals   = "/api/referrals/"
	EndpointWorkflows   = "/api/workflows/"
)

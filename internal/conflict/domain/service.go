package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	dealerdomain "github.com/smallbiznis/dealerhub/internal/dealer/domain"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
)

type SimilarQuery struct {
	Name            string
	Mobile          string
	Email           string
	TaxID           string
	ExcludeDealerID snowflake.ID
}

// SimilarEmployee is an employment at another dealer whose person resembles the query.
type SimilarEmployee struct {
	affiliationdomain.Employment
	Person     identitydomain.Person `json:"person"`
	Dealer     dealerdomain.Dealer   `json:"dealer"`
	DealerName string                `json:"dealerName"`
}

// SimilarClient is a client link at another dealer whose client resembles the query.
type SimilarClient struct {
	affiliationdomain.ClientLink
	Client     identitydomain.Client `json:"client"`
	Dealer     dealerdomain.Dealer   `json:"dealer"`
	DealerName string                `json:"dealerName"`
}

type Service interface {
	// CheckEmployeeConflict returns a conflict when the person is actively
	// employed by a dealer other than requestingDealerID.
	CheckEmployeeConflict(ctx context.Context, personID, requestingDealerID snowflake.ID) (*Conflict, error)
	CheckClientConflict(ctx context.Context, clientID, requestingDealerID snowflake.ID) (*Conflict, error)
	FindSimilarEmployees(ctx context.Context, query SimilarQuery) ([]SimilarEmployee, error)
	FindSimilarClients(ctx context.Context, query SimilarQuery) ([]SimilarClient, error)
}

var (
	ErrInvalidDealer = errors.New("invalid_dealer_id")
	ErrInvalidID     = errors.New("invalid_id")
)

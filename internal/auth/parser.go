package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hartawan/tambak-contracts/internal/model"
)

var signingMethod = jwt.SigningMethodHS256

type accessClaims struct {
	Role       string `json:"role"`
	SupplierID string `json:"supplier_id,omitempty"`
	jwt.RegisteredClaims
}

// Parser validates HS256 access tokens and extracts the principal.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != signingMethod {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}
	if !parsed.Valid {
		return model.Principal{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid subject: %w", err)
	}

	role := model.Role(claims.Role)
	if role != model.RoleGM && role != model.RoleSupplier {
		return model.Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	principal := model.Principal{UserID: userID, Role: role}
	if claims.SupplierID != "" {
		supplierID, err := uuid.Parse(claims.SupplierID)
		if err != nil {
			return model.Principal{}, fmt.Errorf("invalid supplier_id: %w", err)
		}
		principal.SupplierID = &supplierID
	}
	return principal, nil
}

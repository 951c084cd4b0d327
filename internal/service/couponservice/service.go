package couponservice

import (
	"context"
	"fmt"
	"strings"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// CouponRepository define o contrato que o Serviço de Cupons espera da camada
// de Persistência.
type CouponRepository interface {
	Save(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error)
	FindByID(ctx context.Context, id string) (domain.Coupon, error)
	FindActiveByCode(ctx context.Context, code string) (domain.Coupon, error)
	FindAll(ctx context.Context) ([]domain.Coupon, error)
	IncrementUsage(ctx context.Context, id string) error
	Update(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error)
	Delete(ctx context.Context, id string) error
}

// Service implementa a avaliação de cupons e o CRUD administrativo.
type Service struct {
	repo   CouponRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Cupons.
func NewService(repo CouponRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Evaluate avalia um cupom contra um subtotal. O código é normalizado para
// maiúsculas. Falha com NotFound quando não há cupom ativo/válido/com usos
// disponíveis para o código, e com BelowMinimumPurchase quando o subtotal
// não atinge a compra mínima.
func (s *Service) Evaluate(ctx context.Context, code string, subtotal float64) (domain.CouponEvaluation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.CouponEvaluation{}, apperror.NewValidationError("O código do cupom é obrigatório.")
	}
	if subtotal < 0 {
		return domain.CouponEvaluation{}, apperror.NewValidationError("O subtotal não pode ser negativo.")
	}

	s.logger.Debug("Avaliando cupom.", map[string]interface{}{"code": code, "subtotal": subtotal})

	coupon, err := s.repo.FindActiveByCode(ctx, code)
	if err != nil {
		return domain.CouponEvaluation{}, err
	}

	if subtotal < coupon.MinimumPurchase {
		return domain.CouponEvaluation{}, apperror.NewBelowMinimumPurchaseError(
			fmt.Sprintf("Compra mínima de %.2f é exigida pelo cupom %s.", coupon.MinimumPurchase, coupon.Code),
		)
	}

	evaluation := domain.CouponEvaluation{
		Coupon:         coupon,
		DiscountAmount: coupon.DiscountFor(subtotal),
	}

	s.logger.Info("Cupom avaliado com sucesso.", map[string]interface{}{
		"code":     coupon.Code,
		"discount": evaluation.DiscountAmount,
	})
	return evaluation, nil
}

// RegisterUse registra um uso do cupom após a aplicação bem-sucedida em um
// pedido. O incremento é condicionado ao limite de usos no repositório.
func (s *Service) RegisterUse(ctx context.Context, couponID string) error {
	return s.repo.IncrementUsage(ctx, couponID)
}

// CreateCoupon cria um novo cupom (operação de admin).
func (s *Service) CreateCoupon(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))

	if coupon.Code == "" {
		return domain.Coupon{}, apperror.NewValidationError("O código do cupom é obrigatório.")
	}
	if coupon.DiscountType != domain.DiscountPercentage && coupon.DiscountType != domain.DiscountFixed {
		return domain.Coupon{}, apperror.NewValidationError("O tipo de desconto deve ser 'percentage' ou 'fixed'.")
	}
	if coupon.DiscountAmount < 0 {
		return domain.Coupon{}, apperror.NewValidationError("O valor do desconto não pode ser negativo.")
	}
	if coupon.MinimumPurchase < 0 {
		return domain.Coupon{}, apperror.NewValidationError("A compra mínima não pode ser negativa.")
	}
	if coupon.EndDate.Before(coupon.StartDate) {
		return domain.Coupon{}, apperror.NewValidationError("A data final deve ser posterior à data inicial.")
	}
	if coupon.MaxUses != nil && *coupon.MaxUses < 1 {
		return domain.Coupon{}, apperror.NewValidationError("O limite de usos, quando definido, deve ser pelo menos 1.")
	}

	coupon.UsedCount = 0

	created, err := s.repo.Save(ctx, coupon)
	if err != nil {
		s.logger.Error("Falha ao criar cupom no repositório.", err)
		return domain.Coupon{}, err
	}
	return created, nil
}

// GetCoupons lista todos os cupons (operação de admin).
func (s *Service) GetCoupons(ctx context.Context) ([]domain.Coupon, error) {
	coupons, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar cupons no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar cupons.", err)
	}
	return coupons, nil
}

// UpdateCoupon atualiza um cupom existente (operação de admin).
func (s *Service) UpdateCoupon(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	if coupon.ID == "" {
		return domain.Coupon{}, apperror.NewValidationError("O ID do cupom é obrigatório.")
	}

	current, err := s.repo.FindByID(ctx, coupon.ID)
	if err != nil {
		return domain.Coupon{}, err
	}

	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if coupon.Code == "" {
		coupon.Code = current.Code
	}
	if coupon.EndDate.Before(coupon.StartDate) {
		return domain.Coupon{}, apperror.NewValidationError("A data final deve ser posterior à data inicial.")
	}

	// used_count nunca é editável por aqui; só o incremento atômico o altera.
	coupon.UsedCount = current.UsedCount

	return s.repo.Update(ctx, coupon)
}

// DeleteCoupon remove um cupom (operação de admin).
func (s *Service) DeleteCoupon(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("O ID do cupom é obrigatório.")
	}
	return s.repo.Delete(ctx, id)
}

package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/usecase"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository/mocks"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProductUseCase_Create(t *testing.T) {
	type testCase struct {
		name      string
		in        dto.CreateProductRequest
		setupMock func(m *mocks.MockProductRepository)
		wantErr   error
		check     func(t *testing.T, got *dto.ProductResponse)
	}

	rate105 := dec("10.5")
	rate7 := dec("7")
	tests := []testCase{
		{
			name: "alícuota por defecto 21",
			in:   dto.CreateProductRequest{Code: "P1", Name: "Tornillo", Price: dec("19.99")},
			setupMock: func(m *mocks.MockProductRepository) {
				m.EXPECT().GetByCode(gomock.Any(), "P1").Return(nil, nil)
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, got *dto.ProductResponse) {
				assert.True(t, got.IVARate.Equal(entity.IVARate21))
				assert.Equal(t, "24.19", got.PriceWithIVA.StringFixed(2))
				assert.True(t, got.IsActive)
			},
		},
		{
			name: "alícuota 10.5",
			in:   dto.CreateProductRequest{Code: "P2", Name: "Pan", Price: dec("100"), IVARate: &rate105},
			setupMock: func(m *mocks.MockProductRepository) {
				m.EXPECT().GetByCode(gomock.Any(), "P2").Return(nil, nil)
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, got *dto.ProductResponse) {
				assert.Equal(t, "110.50", got.PriceWithIVA.StringFixed(2))
			},
		},
		{
			name:    "alícuota no admitida",
			in:      dto.CreateProductRequest{Code: "P3", Name: "X", Price: dec("1"), IVARate: &rate7},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "precio negativo",
			in:      dto.CreateProductRequest{Code: "P4", Name: "X", Price: dec("-1")},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "sin código",
			in:      dto.CreateProductRequest{Name: "X", Price: dec("1")},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "código duplicado",
			in:   dto.CreateProductRequest{Code: "P1", Name: "Otro", Price: dec("1")},
			setupMock: func(m *mocks.MockProductRepository) {
				m.EXPECT().GetByCode(gomock.Any(), "P1").Return(&entity.Product{ID: "x"}, nil)
			},
			wantErr: domain.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockProductRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := usecase.NewProductUseCase(repo).Create(context.Background(), tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestProductUseCase_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	repo.EXPECT().GetByID(gomock.Any(), "p1").Return(&entity.Product{
		ID: "p1", Code: "P1", Name: "Tornillo", Price: dec("10"), IVARate: entity.IVARate21, IsActive: true,
	}, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	price := dec("12.345")
	stock := 7
	got, err := usecase.NewProductUseCase(repo).Update(context.Background(), "p1", dto.UpdateProductRequest{Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "12.35", got.Price.StringFixed(2))
	assert.Equal(t, 7, got.Stock)
	assert.Equal(t, "Tornillo", got.Name)
}

func TestProductUseCase_Update_NoExiste(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	repo.EXPECT().GetByID(gomock.Any(), "p1").Return(nil, nil)

	_, err := usecase.NewProductUseCase(repo).Update(context.Background(), "p1", dto.UpdateProductRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	active := true
	repo.EXPECT().List(gomock.Any(), repository.ProductFilter{Active: &active, Limit: 100, Offset: 5}).
		Return([]*entity.Product{{ID: "p1", Price: dec("1"), IVARate: entity.IVARate0}}, nil)

	got, err := usecase.NewProductUseCase(repo).List(context.Background(), dto.PageRequest{Limit: 500, Offset: 5}, &active)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 100, got.Page.Limit)
}

func TestProductUseCase_ImportCSV(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewProductUseCase(store.Products())
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Code: "EXIST", Name: "Ya cargado", Price: dec("1")})
	require.NoError(t, err)

	csv := strings.Join([]string{
		"code;name;description;price;iva_rate;stock",
		"P1;Tornillo;Cabeza hexagonal;19,99;21;10",
		"P2;Pan;;100;10.5;",
		"P1;Repetido;;1;21;0",
		"EXIST;Otro;;1;21;0",
		"P3;Malo;;abc;21;0",
		"P4;Alícuota rara;;1;7;0",
		"",
		"P5;Café;;5;0%;3",
	}, "\n")

	res, err := uc.ImportCSV(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", res.Charset)
	assert.Equal(t, 3, res.Created)
	require.Len(t, res.Skipped, 4)
	assert.Equal(t, 4, res.Skipped[0].Line)
	assert.Equal(t, "P1", res.Skipped[0].Code)
	assert.Equal(t, "EXIST", res.Skipped[1].Code)
	assert.Equal(t, "P3", res.Skipped[2].Code)
	assert.Equal(t, "P4", res.Skipped[3].Code)

	p1, err := store.Products().GetByCode(ctx, "P1")
	require.NoError(t, err)
	require.NotNil(t, p1)
	assert.Equal(t, "19.99", p1.Price.StringFixed(2))
	assert.Equal(t, 10, p1.Stock)

	p5, err := store.Products().GetByCode(ctx, "P5")
	require.NoError(t, err)
	require.NotNil(t, p5)
	assert.Equal(t, "Café", p5.Name)
	assert.True(t, p5.IVARate.IsZero())
}

func TestProductUseCase_ImportCSV_Windows1252(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewProductUseCase(store.Products())

	src := "code,name,price\nP1,Té de manzanilla año nuevo,10\nP2,Ñandú de peluche pequeño,20\n"
	enc, err := charmap.Windows1252.NewEncoder().Bytes([]byte(src))
	require.NoError(t, err)

	res, err := uc.ImportCSV(context.Background(), strings.NewReader(string(enc)))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	p2, err := store.Products().GetByCode(context.Background(), "P2")
	require.NoError(t, err)
	require.NotNil(t, p2)
	assert.Equal(t, "Ñandú de peluche pequeño", p2.Name)
}

func TestProductUseCase_ImportCSV_SinColumnas(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewStore().Products())
	_, err := uc.ImportCSV(context.Background(), strings.NewReader("sku,nombre\nA,B\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

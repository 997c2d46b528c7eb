package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"listing-studio/metrics"
	"listing-studio/models"
	"listing-studio/utils"
)

// GenerationRecorder persists pipeline items (implemented by repository.GenerationRepository)
type GenerationRecorder interface {
	Record(ctx context.Context, rec models.GenerationRecord) error
}

// GenerationPipeline creates one product per selected blueprint and requests its design,
// one blueprint at a time in selection order. A failing blueprint never stops the others.
type GenerationPipeline struct {
	products    ProductCreator
	designs     DesignGenerator
	recorder    GenerationRecorder
	callTimeout time.Duration
}

// NewGenerationPipeline creates a new GenerationPipeline
// recorder may be nil when no history store is configured
func NewGenerationPipeline(products ProductCreator, designs DesignGenerator, recorder GenerationRecorder, callTimeout time.Duration) *GenerationPipeline {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &GenerationPipeline{
		products:    products,
		designs:     designs,
		recorder:    recorder,
		callTimeout: callTimeout,
	}
}

// Run starts a pipeline run and streams one result per selected blueprint.
// With an empty selection nothing is called: the run id is empty and the channel is closed.
// The run is detached from ctx cancellation; only the per-call timeouts bound it.
func (p *GenerationPipeline) Run(ctx context.Context, req models.GenerationRequest) (string, <-chan models.GenerationItemResult) {
	if len(req.ProductIDs) == 0 {
		ch := make(chan models.GenerationItemResult)
		close(ch)
		return "", ch
	}

	runID := uuid.NewString()
	ctx = context.WithoutCancel(ctx)
	results := make(chan models.GenerationItemResult, len(req.ProductIDs))

	log.Printf("🎨 GenerationPipeline.Run: run=%s starting for %d blueprints", runID, len(req.ProductIDs))
	go func() {
		defer close(results)
		failed := 0
		for i, blueprintID := range req.ProductIDs {
			item := p.processItem(ctx, runID, i, blueprintID, req)
			if item.Failed() {
				failed++
			}
			p.record(ctx, item)
			results <- item
		}
		log.Printf("🎉 GenerationPipeline.Run: run=%s completed: %d ok, %d failed", runID, len(req.ProductIDs)-failed, failed)
	}()
	return runID, results
}

// Execute runs the pipeline and collects every item
func (p *GenerationPipeline) Execute(ctx context.Context, req models.GenerationRequest) models.GenerationResult {
	runID, results := p.Run(ctx, req)
	result := models.NewGenerationResult(runID)
	for item := range results {
		result.Add(item)
	}
	return result
}

func (p *GenerationPipeline) processItem(ctx context.Context, runID string, index, blueprintID int, req models.GenerationRequest) models.GenerationItemResult {
	item := models.GenerationItemResult{
		RunID:       runID,
		Index:       index,
		BlueprintID: blueprintID,
		Previews:    []string{},
	}

	variants := append([]int{}, req.Variants[blueprintID]...)
	payload := models.CreateProductRequest{
		Niche:             req.Listing.Niche,
		BlueprintID:       blueprintID,
		Variants:          variants,
		StylePreferences:  req.Listing.StylePreferences,
		AdditionalNotes:   req.Listing.AdditionalNotes,
		Title:             req.Listing.Title,
		Description:       req.Listing.Description,
		SafetyInformation: req.Listing.SafetyInformation,
		Keywords:          utils.SplitList(req.Listing.Keywords),
		Tags:              utils.SplitList(req.Listing.Tags),
	}

	log.Printf("📦 GenerationPipeline: run=%s creating product for blueprint %d (%d variants)", runID, blueprintID, len(variants))
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	productID, err := p.products.CreateProduct(callCtx, payload)
	cancel()
	if err != nil {
		return failItem(item, models.StageCreateProduct, err)
	}
	item.CreatedProductID = productID

	log.Printf("🖌️  GenerationPipeline: run=%s generating design for product %s", runID, productID)
	callCtx, cancel = context.WithTimeout(ctx, p.callTimeout)
	previews, err := p.designs.GenerateDesign(callCtx, productID)
	cancel()
	if err != nil {
		return failItem(item, models.StageGenerateDesign, err)
	}
	if previews != nil {
		item.Previews = previews
	}

	metrics.GenerationItems.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Printf("✅ GenerationPipeline: run=%s blueprint %d produced %d previews", runID, blueprintID, len(item.Previews))
	return item
}

func failItem(item models.GenerationItemResult, stage string, err error) models.GenerationItemResult {
	itemErr := &models.GenerationItemError{BlueprintID: item.BlueprintID, Stage: stage, Err: err}
	item.Err = itemErr
	item.Error = itemErr.Error()
	metrics.GenerationItems.WithLabelValues(metrics.OutcomeFailure).Inc()
	log.Printf("❌ GenerationPipeline: run=%s %v", item.RunID, itemErr)
	return item
}

func (p *GenerationPipeline) record(ctx context.Context, item models.GenerationItemResult) {
	if p.recorder == nil {
		return
	}
	rec := models.GenerationRecord{
		RunID:            item.RunID,
		BlueprintID:      item.BlueprintID,
		CreatedProductID: string(item.CreatedProductID),
		Previews:         item.Previews,
		Error:            item.Error,
	}
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	if err := p.recorder.Record(callCtx, rec); err != nil {
		log.Printf("⚠️  GenerationPipeline: run=%s failed to record blueprint %d: %v", item.RunID, item.BlueprintID, err)
	}
}

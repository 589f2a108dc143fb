package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/kreaite/studio-core/internal/config"
	st "github.com/kreaite/studio-core/internal/store"
	"github.com/kreaite/studio-core/internal/store/model"
)

var _ = Describe("workflow store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	newWorkflow := func(creatorID string) model.Workflow {
		return model.Workflow{
			ID:           uuid.New(),
			CreatorID:    creatorID,
			Name:         "my audiobook",
			WorkflowType: "book_to_audiobook",
			SourceType:   "book",
			SourceID:     "book-42",
			Status:       model.WorkflowStatusActive,
			Steps: model.MakeJSONField([]model.WorkflowStep{
				{ID: "extract_chapters", Name: "Extract chapters", Type: "text_processing", ServiceFunction: "bookService.extractChapters", EstimatedDuration: 10},
				{ID: "generate_narration", Name: "Generate narration", Type: "ai_generation", ServiceFunction: "ttsService.generateNarration", EstimatedDuration: 300, EstimatedCost: 1600},
			}),
			CompletedSteps: model.MakeJSONField([]int{}),
		}
	}

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		gormDB = db

		store = st.NewStore(db)
		Expect(store).ToNot(BeNil())
		Expect(store.InitialMigration()).To(Succeed())
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM workflow_jobs;")
		gormDB.Exec("DELETE FROM workflows;")
	})

	Context("workflow", func() {
		It("creates and reads back a workflow with frozen steps", func() {
			created, err := store.Workflow().Create(context.TODO(), newWorkflow("creator-1"))
			Expect(err).To(BeNil())
			Expect(created).ToNot(BeNil())

			got, err := store.Workflow().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(got.WorkflowType).To(Equal("book_to_audiobook"))
			Expect(got.StepList()).To(HaveLen(2))
			Expect(got.StepList()[1].EstimatedCost).To(Equal(1600))
			Expect(got.CompletedStepList()).To(BeEmpty())
		})

		It("returns not found for an unknown id", func() {
			_, err := store.Workflow().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("lists workflows filtered by creator", func() {
			_, err := store.Workflow().Create(context.TODO(), newWorkflow("alice"))
			Expect(err).To(BeNil())
			_, err = store.Workflow().Create(context.TODO(), newWorkflow("bob"))
			Expect(err).To(BeNil())

			workflows, err := store.Workflow().List(context.TODO(), st.NewWorkflowQueryFilter().ByCreatorID("alice"))
			Expect(err).To(BeNil())
			Expect(workflows).To(HaveLen(1))
			Expect(workflows[0].CreatorID).To(Equal("alice"))
		})

		It("persists status updates", func() {
			created, err := store.Workflow().Create(context.TODO(), newWorkflow("creator-1"))
			Expect(err).To(BeNil())

			created.Status = model.WorkflowStatusPaused
			_, err = store.Workflow().Update(context.TODO(), created)
			Expect(err).To(BeNil())

			got, err := store.Workflow().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.WorkflowStatusPaused))
		})
	})

	Context("workflow jobs", func() {
		It("creates and lists jobs by workflow ordered by step", func() {
			wf, err := store.Workflow().Create(context.TODO(), newWorkflow("creator-1"))
			Expect(err).To(BeNil())

			for i := 1; i >= 0; i-- {
				_, err = store.WorkflowJob().Create(context.TODO(), model.WorkflowJob{
					WorkflowID: wf.ID,
					StepIndex:  i,
					JobType:    "ai_generation",
					Status:     model.WorkflowJobStatusPending,
					InputData:  model.MakeJSONField(map[string]any{"sourceId": "book-42"}),
				})
				Expect(err).To(BeNil())
			}

			jobs, err := store.WorkflowJob().ListByWorkflow(context.TODO(), wf.ID)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))
			Expect(jobs[0].StepIndex).To(Equal(0))
			Expect(jobs[1].StepIndex).To(Equal(1))
			Expect(jobs[0].InputData.Data["sourceId"]).To(Equal("book-42"))
		})

		It("fails every unfinished job on cancellation", func() {
			wf, err := store.Workflow().Create(context.TODO(), newWorkflow("creator-1"))
			Expect(err).To(BeNil())

			_, err = store.WorkflowJob().Create(context.TODO(), model.WorkflowJob{
				WorkflowID: wf.ID, StepIndex: 0, Status: model.WorkflowJobStatusPending,
			})
			Expect(err).To(BeNil())
			done, err := store.WorkflowJob().Create(context.TODO(), model.WorkflowJob{
				WorkflowID: wf.ID, StepIndex: 1, Status: model.WorkflowJobStatusCompleted,
			})
			Expect(err).To(BeNil())

			affected, err := store.WorkflowJob().FailUnfinished(context.TODO(), wf.ID, "workflow cancelled by user")
			Expect(err).To(BeNil())
			Expect(affected).To(Equal(int64(1)))

			jobs, err := store.WorkflowJob().ListByWorkflow(context.TODO(), wf.ID)
			Expect(err).To(BeNil())
			Expect(jobs[0].Status).To(Equal(model.WorkflowJobStatusFailed))
			Expect(jobs[0].Error).To(ContainSubstring("cancelled"))
			Expect(jobs[1].ID).To(Equal(done.ID))
			Expect(jobs[1].Status).To(Equal(model.WorkflowJobStatusCompleted))
		})
	})

	Context("transaction", func() {
		It("rolls back an uncommitted create", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			wf, err := store.Workflow().Create(ctx, newWorkflow("creator-1"))
			Expect(err).To(BeNil())

			_, err = st.Rollback(ctx)
			Expect(err).To(BeNil())

			_, err = store.Workflow().Get(context.TODO(), wf.ID)
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("commits a create", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			wf, err := store.Workflow().Create(ctx, newWorkflow("creator-1"))
			Expect(err).To(BeNil())

			_, err = st.Commit(ctx)
			Expect(err).To(BeNil())

			got, err := store.Workflow().Get(context.TODO(), wf.ID)
			Expect(err).To(BeNil())
			Expect(got.ID).To(Equal(wf.ID))
		})
	})
})

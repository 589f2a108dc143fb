package service_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/kreaite/studio-core/internal/config"
	"github.com/kreaite/studio-core/internal/service"
	st "github.com/kreaite/studio-core/internal/store"
	"github.com/kreaite/studio-core/internal/store/model"
)

var _ = Describe("workflow service", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
		svc    *service.WorkflowService
	)

	createAudiobookWorkflow := func() *model.Workflow {
		workflow, _, err := svc.CreateWorkflow(context.TODO(), service.CreateWorkflowForm{
			CreatorID:    "creator-1",
			WorkflowType: "book_to_audiobook",
			SourceType:   "book",
			SourceID:     "book-42",
		})
		Expect(err).To(BeNil())
		return workflow
	}

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		gormDB = db

		store = st.NewStore(db)
		Expect(store.InitialMigration()).To(Succeed())

		svc = service.NewWorkflowService(store)
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM workflow_jobs;")
		gormDB.Exec("DELETE FROM workflows;")
	})

	Context("create", func() {
		It("returns the advisory cost and duration totals", func() {
			workflow, estimate, err := svc.CreateWorkflow(context.TODO(), service.CreateWorkflowForm{
				CreatorID:    "creator-1",
				WorkflowType: "book_to_audiobook",
				SourceType:   "book",
				SourceID:     "book-42",
			})
			Expect(err).To(BeNil())
			Expect(workflow.Status).To(Equal(model.WorkflowStatusActive))
			Expect(estimate.Cost).To(Equal(1600))
			Expect(estimate.Duration).To(Equal(370))
		})

		It("rejects an unknown workflow type", func() {
			_, _, err := svc.CreateWorkflow(context.TODO(), service.CreateWorkflowForm{
				CreatorID:    "creator-1",
				WorkflowType: "book_to_hologram",
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrUnknownWorkflowType{}))
		})

		It("freezes the template steps on the persisted row", func() {
			workflow := createAudiobookWorkflow()

			got, err := store.Workflow().Get(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(got.StepList()).To(HaveLen(4))
			Expect(got.StepList()[1].ServiceFunction).To(Equal("ttsService.generateNarration"))
		})

		It("defaults the name from the template", func() {
			workflow := createAudiobookWorkflow()
			Expect(workflow.Name).To(Equal("Book to Audiobook"))
		})
	})

	Context("start", func() {
		It("creates exactly one pending job for step zero", func() {
			workflow := createAudiobookWorkflow()

			job, err := svc.StartWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(job.StepIndex).To(Equal(0))
			Expect(job.Status).To(Equal(model.WorkflowJobStatusPending))
			Expect(job.JobType).To(Equal("text_processing"))
			Expect(job.InputData.Data["sourceId"]).To(Equal("book-42"))

			jobs, err := store.WorkflowJob().ListByWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
		})

		It("fails for an unknown workflow", func() {
			_, err := svc.StartWorkflow(context.TODO(), uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("fails when the workflow is paused", func() {
			workflow := createAudiobookWorkflow()
			_, err := svc.CancelWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())

			_, err = svc.StartWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidWorkflowState{}))
		})
	})

	Context("cancel", func() {
		It("pauses the workflow and fails its pending job", func() {
			workflow := createAudiobookWorkflow()
			_, err := svc.StartWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())

			cancelled, err := svc.CancelWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(cancelled.Status).To(Equal(model.WorkflowStatusPaused))

			jobs, err := store.WorkflowJob().ListByWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Status).To(Equal(model.WorkflowJobStatusFailed))
			Expect(jobs[0].Error).To(ContainSubstring("cancelled"))
		})

		It("leaves completed jobs untouched", func() {
			workflow := createAudiobookWorkflow()
			job, err := svc.StartWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())

			job.Status = model.WorkflowJobStatusCompleted
			_, err = store.WorkflowJob().Update(context.TODO(), job)
			Expect(err).To(BeNil())

			_, err = svc.CancelWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())

			got, err := store.WorkflowJob().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.WorkflowJobStatusCompleted))
			Expect(got.Error).To(BeEmpty())
		})

		It("fails for an unknown workflow", func() {
			_, err := svc.CancelWorkflow(context.TODO(), uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})
	})

	Context("resume", func() {
		It("flips a paused workflow back to active without recreating jobs", func() {
			workflow := createAudiobookWorkflow()
			_, err := svc.StartWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			_, err = svc.CancelWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())

			resumed, err := svc.ResumeWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(resumed.Status).To(Equal(model.WorkflowStatusActive))

			jobs, err := store.WorkflowJob().ListByWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Status).To(Equal(model.WorkflowJobStatusFailed))
		})

		It("rejects resuming an active workflow", func() {
			workflow := createAudiobookWorkflow()
			_, err := svc.ResumeWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidWorkflowState{}))
		})
	})

	Context("status", func() {
		It("aggregates workflow state and job records", func() {
			workflow := createAudiobookWorkflow()
			_, err := svc.StartWorkflow(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())

			status, err := svc.GetWorkflowStatus(context.TODO(), workflow.ID)
			Expect(err).To(BeNil())
			Expect(status.Status).To(Equal(model.WorkflowStatusActive))
			Expect(status.StepCount).To(Equal(4))
			Expect(status.CurrentStepIndex).To(Equal(0))
			Expect(status.CompletedSteps).To(BeEmpty())
			Expect(status.Jobs).To(HaveLen(1))
		})
	})

	Context("templates", func() {
		It("estimates a template without touching the store", func() {
			estimate, err := svc.EstimateWorkflowCost("book_to_audiobook")
			Expect(err).To(BeNil())
			Expect(estimate.Cost).To(Equal(1600))
			Expect(estimate.Duration).To(Equal(370))
		})

		It("rejects estimating an unknown type", func() {
			_, err := svc.EstimateWorkflowCost("book_to_hologram")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrUnknownWorkflowType{}))
		})

		It("lists the four fixed templates", func() {
			templates := svc.GetAvailableWorkflows()
			Expect(templates).To(HaveLen(4))
			Expect(templates[0].Type).To(Equal("book_to_audiobook"))
			Expect(templates[3].Type).To(Equal("music_to_video"))
		})
	})
})

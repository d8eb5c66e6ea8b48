// Package cfnclient wraps the CloudFormation API for the deploy engine. It
// owns the create-or-update decision, the blocking waiters, output reads,
// deletion, and template staging for bodies above the API size limit. All
// rollback and resource-ordering behavior stays with CloudFormation; the
// client only surfaces what the service reports.
package cfnclient

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"
)

// ErrNoChanges marks an update that had nothing to deploy. Callers treat it
// as success.
var ErrNoChanges = errors.New("no changes to deploy")

// maxTemplateBodyBytes is the CloudFormation limit for inline template
// bodies; larger templates must be staged in S3 and passed by URL.
const maxTemplateBodyBytes = 51200

// CloudFormationAPI is the subset of the CloudFormation client the deploy
// engine uses. It is satisfied by *cloudformation.Client.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, in *cloudformation.DescribeStacksInput, opts ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	DescribeStackEvents(ctx context.Context, in *cloudformation.DescribeStackEventsInput, opts ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
	CreateStack(ctx context.Context, in *cloudformation.CreateStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, in *cloudformation.UpdateStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, in *cloudformation.DeleteStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	ValidateTemplate(ctx context.Context, in *cloudformation.ValidateTemplateInput, opts ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error)
}

// S3API is the subset of the S3 client used for template staging.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures the client.
type Options struct {
	// Region of the target stacks, used to form staging object URLs.
	Region string
	// StagingBucket receives template bodies above the inline size limit.
	// Empty disables staging; oversized templates then fail locally.
	StagingBucket string
	// WaitTimeout bounds each blocking stack operation.
	WaitTimeout time.Duration
}

// Client drives stack lifecycle operations against CloudFormation.
type Client struct {
	cfn  CloudFormationAPI
	s3   S3API
	opts Options
	now  func() time.Time
}

// New builds a client from a resolved AWS config.
func New(awscfg aws.Config, opts Options) *Client {
	return NewFromAPIs(cloudformation.NewFromConfig(awscfg), s3.NewFromConfig(awscfg), opts)
}

// NewFromAPIs builds a client from explicit API implementations.
func NewFromAPIs(cfnAPI CloudFormationAPI, s3API S3API, opts Options) *Client {
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = 60 * time.Minute
	}
	return &Client{cfn: cfnAPI, s3: s3API, opts: opts, now: time.Now}
}

// Status returns the stack's current status and whether it exists.
func (c *Client) Status(ctx context.Context, stackName string) (types.StackStatus, bool, error) {
	out, err := c.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if stackNotFound(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "describing stack %s", stackName)
	}
	if len(out.Stacks) == 0 {
		return "", false, nil
	}
	return out.Stacks[0].StackStatus, true, nil
}

// Deploy creates the stack if it does not exist, updates it otherwise, and
// blocks until CloudFormation reports a terminal state. Returns ErrNoChanges
// (marked) when an update had nothing to do.
func (c *Client) Deploy(ctx context.Context, stackName, templateBody string, params map[string]string) error {
	status, exists, err := c.Status(ctx, stackName)
	if err != nil {
		return err
	}
	if exists && status == types.StackStatusRollbackComplete {
		return errors.Newf(
			"stack %s is in ROLLBACK_COMPLETE (its creation never succeeded); delete it before redeploying",
			stackName)
	}

	body, templateURL, err := c.stage(ctx, stackName, templateBody)
	if err != nil {
		return err
	}

	if !exists {
		_, err = c.cfn.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:    aws.String(stackName),
			TemplateBody: body,
			TemplateURL:  templateURL,
			Parameters:   toParameters(params),
			Capabilities: []types.Capability{types.CapabilityCapabilityNamedIam},
			OnFailure:    types.OnFailureRollback,
		})
		if err != nil {
			return errors.Wrapf(err, "creating stack %s", stackName)
		}
		return c.waitCreate(ctx, stackName)
	}

	_, err = c.cfn.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: body,
		TemplateURL:  templateURL,
		Parameters:   toParameters(params),
		Capabilities: []types.Capability{types.CapabilityCapabilityNamedIam},
	})
	if err != nil {
		if noUpdates(err) {
			return errors.Mark(errors.Newf("stack %s: no changes to deploy", stackName), ErrNoChanges)
		}
		return errors.Wrapf(err, "updating stack %s", stackName)
	}
	return c.waitUpdate(ctx, stackName)
}

// Outputs returns the stack's outputs keyed by output name.
func (c *Client) Outputs(ctx context.Context, stackName string) (map[string]string, error) {
	out, err := c.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "describing stack %s", stackName)
	}
	if len(out.Stacks) == 0 {
		return nil, errors.Newf("stack %s not found", stackName)
	}

	outputs := make(map[string]string, len(out.Stacks[0].Outputs))
	for _, o := range out.Stacks[0].Outputs {
		outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return outputs, nil
}

// Delete removes the stack and blocks until deletion completes. Deleting a
// stack that does not exist is not an error.
func (c *Client) Delete(ctx context.Context, stackName string) error {
	_, exists, err := c.Status(ctx, stackName)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if _, err := c.cfn.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(stackName),
	}); err != nil {
		return errors.Wrapf(err, "deleting stack %s", stackName)
	}

	waiter := cloudformation.NewStackDeleteCompleteWaiter(c.cfn, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
		o.MinDelay = 5 * time.Second
	})
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	}, c.opts.WaitTimeout); err != nil {
		return c.withFailureReasons(ctx, stackName, errors.Wrapf(err, "waiting for deletion of stack %s", stackName))
	}
	return nil
}

// Validate runs the template through the ValidateTemplate API.
func (c *Client) Validate(ctx context.Context, stackName, templateBody string) error {
	body, templateURL, err := c.stage(ctx, stackName, templateBody)
	if err != nil {
		return err
	}
	_, err = c.cfn.ValidateTemplate(ctx, &cloudformation.ValidateTemplateInput{
		TemplateBody: body,
		TemplateURL:  templateURL,
	})
	return errors.Wrapf(err, "validating template for stack %s", stackName)
}

func (c *Client) waitCreate(ctx context.Context, stackName string) error {
	waiter := cloudformation.NewStackCreateCompleteWaiter(c.cfn, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
		o.MinDelay = 5 * time.Second
	})
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	}, c.opts.WaitTimeout); err != nil {
		return c.withFailureReasons(ctx, stackName, errors.Wrapf(err, "waiting for creation of stack %s", stackName))
	}
	return nil
}

func (c *Client) waitUpdate(ctx context.Context, stackName string) error {
	waiter := cloudformation.NewStackUpdateCompleteWaiter(c.cfn, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
		o.MinDelay = 5 * time.Second
	})
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	}, c.opts.WaitTimeout); err != nil {
		return c.withFailureReasons(ctx, stackName, errors.Wrapf(err, "waiting for update of stack %s", stackName))
	}
	return nil
}

// stage returns either an inline body or a staging-bucket URL for templates
// above the inline limit.
func (c *Client) stage(ctx context.Context, stackName, templateBody string) (body, templateURL *string, err error) {
	if len(templateBody) <= maxTemplateBodyBytes {
		return aws.String(templateBody), nil, nil
	}
	if c.opts.StagingBucket == "" {
		return nil, nil, errors.Newf(
			"template for stack %s is %d bytes (limit %d) and no staging bucket is configured",
			stackName, len(templateBody), maxTemplateBodyBytes)
	}

	key := fmt.Sprintf("templates/%s/%d.template.json", stackName, c.now().UTC().UnixNano())
	if _, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.opts.StagingBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(templateBody)),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, nil, errors.Wrapf(err, "staging template for stack %s", stackName)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.opts.StagingBucket, c.opts.Region, key)
	return nil, aws.String(url), nil
}

// withFailureReasons augments a waiter error with the first failed resource
// events, which carry the actual cause; the waiter itself only reports the
// terminal stack status.
func (c *Client) withFailureReasons(ctx context.Context, stackName string, waitErr error) error {
	events, err := c.cfn.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return waitErr
	}

	var reasons []string
	for _, ev := range events.StackEvents {
		status := string(ev.ResourceStatus)
		reason := aws.ToString(ev.ResourceStatusReason)
		if !strings.HasSuffix(status, "_FAILED") || reason == "" {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s (%s): %s", aws.ToString(ev.LogicalResourceId), status, reason))
		if len(reasons) == 3 {
			break
		}
	}
	if len(reasons) == 0 {
		return waitErr
	}
	return errors.WithDetail(waitErr, strings.Join(reasons, "\n"))
}

func toParameters(params map[string]string) []types.Parameter {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]types.Parameter, 0, len(keys))
	for _, k := range keys {
		result = append(result, types.Parameter{
			ParameterKey:   aws.String(k),
			ParameterValue: aws.String(params[k]),
		})
	}
	return result
}

func stackNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}

func noUpdates(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
}

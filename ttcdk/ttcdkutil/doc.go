// Package ttcdkutil provides shared helpers for the tier construct packages:
// app and stack setup, qualifier-based naming, and CloudFormation
// parameter/output declaration.
//
// Every tier stack is synthesized with the bootstrapless synthesizer so the
// resulting template deploys through plain CreateStack/UpdateStack calls,
// without a CDK bootstrap stack in the target account.
package ttcdkutil

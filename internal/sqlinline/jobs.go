// Package sqlinline holds every SQL statement the binaries run. Each constant
// starts with a "--sql <uuid>" marker line so log lines and lint tooling can
// refer to a statement without quoting its body.
package sqlinline

const QEnqueueJob = `--sql 84106d46-2804-4e39-a191-0451d1deba86
insert into generation_requests (
    id,
    task_type,
    status,
    prompt_json,
    quantity,
    aspect_ratio,
    provider,
    properties
)
values (
    gen_random_uuid(),
    $1::text,
    'QUEUED',
    $2::jsonb,
    $3::int,
    $4::text,
    $5::text,
    coalesce($6::jsonb, '{}'::jsonb)
)
returning id;
`

const QSelectJobStatus = `--sql b9a4f443-bf2b-490f-a149-47a03a291850
select id, task_type, status, provider, quantity, aspect_ratio, error, created_at, updated_at
from generation_requests
where id = $1::uuid;
`

const QUpdateJobStatus = `--sql e44798a5-7608-4b54-9def-45b3132a3136
update generation_requests
set status = $2::text,
    error = nullif($3::text, ''),
    updated_at = now()
where id = $1::uuid;
`

const QListRecentJobs = `--sql 8adb7ec2-7adf-4a73-9a37-1e3f96f65d98
select id, task_type, status, provider, quantity, aspect_ratio, created_at
from generation_requests
order by created_at desc
limit $1::int;
`

package sqlinline

const QWorkerClaimJob = `--sql 72385939-d08d-4ff9-8a23-4ae9d586ff51
with next_job as (
    select id
    from generation_requests
    where status = 'QUEUED'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update generation_requests
    set status = 'RUNNING', updated_at = now()
    where id in (select id from next_job)
    returning id, task_type, provider, quantity, aspect_ratio, prompt_json, properties
)
select * from updated;
`
